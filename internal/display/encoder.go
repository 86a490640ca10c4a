package display

import (
	"image"

	"github.com/pleimann/camel-arbiter/internal/hid"
)

// ReportSize is the size of one HID output report
const ReportSize = 64

// FrameEncoder turns packed pixel data into display reports that fit the
// HID report size
type FrameEncoder struct {
	width  int
	height int
}

func NewFrameEncoder(width, height int) *FrameEncoder {
	return &FrameEncoder{width: width, height: height}
}

func (e *FrameEncoder) EncodeClear() *hid.DisplayFrame {
	return hid.NewClearCommand()
}

// MaxPayloadSize is the pixel data that fits in one report after the header
func (e *FrameEncoder) MaxPayloadSize() int {
	return ReportSize - hid.FrameHeaderSize
}

// ChunkFrame splits a full frame into partial frames
func (e *FrameEncoder) ChunkFrame(data []byte) []*hid.DisplayFrame {
	return e.ChunkRect(image.Rect(0, 0, e.width, e.height), data)
}

// ChunkRect splits the packed pixels of rect into partial frames of whole
// rows. A row wider than one report still goes out as a single-row chunk.
func (e *FrameEncoder) ChunkRect(rect image.Rectangle, data []byte) []*hid.DisplayFrame {
	bytesPerRow := (rect.Dx() + 7) / 8
	if bytesPerRow == 0 {
		return nil
	}
	rowsPerChunk := max(e.MaxPayloadSize()/bytesPerRow, 1)

	var frames []*hid.DisplayFrame
	for y := 0; y < rect.Dy(); y += rowsPerChunk {
		rows := min(rowsPerChunk, rect.Dy()-y)

		start := min(y*bytesPerRow, len(data))
		end := min((y+rows)*bytesPerRow, len(data))

		frames = append(frames, hid.NewPartialFrame(
			uint16(rect.Min.X), uint16(rect.Min.Y+y),
			uint16(rect.Dx()), uint16(rows),
			data[start:end],
		))
	}
	return frames
}
