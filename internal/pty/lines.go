package pty

import (
	"bytes"
	"regexp"
)

// ansiPattern matches CSI and OSC escape sequences
var ansiPattern = regexp.MustCompile(`\x1b(\[[0-9;?]*[ -/]*[@-~]|\][^\x07\x1b]*(\x07|\x1b\\))`)

// maxLine bounds a line that never sees a newline
const maxLine = 4096

// lineSplitter turns a PTY byte stream into clean text lines
type lineSplitter struct {
	buf  []byte
	emit func(string)
}

func (s *lineSplitter) Write(p []byte) {
	s.buf = append(s.buf, p...)
	for {
		i := bytes.IndexAny(s.buf, "\r\n")
		if i < 0 {
			break
		}
		s.flush(s.buf[:i])
		s.buf = s.buf[i+1:]
	}
	if len(s.buf) > maxLine {
		s.flush(s.buf)
		s.buf = s.buf[:0]
	}
}

func (s *lineSplitter) flush(line []byte) {
	clean := ansiPattern.ReplaceAll(line, nil)
	if len(bytes.TrimSpace(clean)) == 0 {
		return
	}
	s.emit(string(clean))
}
