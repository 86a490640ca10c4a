package hid

import (
	"encoding/binary"
)

// Display commands
const (
	DisplayCmdFullFrame byte = 0x01
	DisplayCmdPartial   byte = 0x02
	DisplayCmdClear     byte = 0x03
)

// FrameHeaderSize is the size of a display report before the pixel data
const FrameHeaderSize = 10

// DisplayFrame is an update for the device's OLED
type DisplayFrame struct {
	Command byte
	X       uint16
	Y       uint16
	Width   uint16
	Height  uint16
	Data    []byte // 1-bit packed pixels, row-major, MSB first
}

// Encode serializes the frame.
//
//	Byte 0:   Report ID (0x02)
//	Byte 1:   Command (0x01=full frame, 0x02=partial, 0x03=clear)
//	Byte 2-5: X, Y offset, little-endian
//	Byte 6-9: Width, Height, little-endian
//	Byte 10+: Pixel data
func (f *DisplayFrame) Encode() []byte {
	buf := make([]byte, FrameHeaderSize+len(f.Data))

	buf[0] = ReportIDDisplay
	buf[1] = f.Command
	binary.LittleEndian.PutUint16(buf[2:4], f.X)
	binary.LittleEndian.PutUint16(buf[4:6], f.Y)
	binary.LittleEndian.PutUint16(buf[6:8], f.Width)
	binary.LittleEndian.PutUint16(buf[8:10], f.Height)
	copy(buf[FrameHeaderSize:], f.Data)

	return buf
}

func NewFullFrame(width, height uint16, data []byte) *DisplayFrame {
	return &DisplayFrame{Command: DisplayCmdFullFrame, Width: width, Height: height, Data: data}
}

func NewPartialFrame(x, y, width, height uint16, data []byte) *DisplayFrame {
	return &DisplayFrame{Command: DisplayCmdPartial, X: x, Y: y, Width: width, Height: height, Data: data}
}

func NewClearCommand() *DisplayFrame {
	return &DisplayFrame{Command: DisplayCmdClear}
}
