package renderer

import (
	"bytes"
	"io"
)

// ConditionalBlock buffers what block writes and copies it to w only when
// block returns true.
func ConditionalBlock(w io.Writer, block func(io.Writer) bool) {
	var buf bytes.Buffer
	if block(&buf) {
		buf.WriteTo(w)
	}
}
