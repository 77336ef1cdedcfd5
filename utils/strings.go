package utils

import (
	"bytes"

	"golang.org/x/text/encoding/charmap"
)

// CString is a possibly null-terminated byte string read from a binary
// stream.
type CString []byte

func (c CString) NullTerminateBytes() []byte {
	i := bytes.IndexByte(c, 0)
	if i == -1 {
		return c
	} else if i == 0 {
		return nil
	} else {
		return c[:i]
	}
}

func (c CString) String() string { return string(c.NullTerminateBytes()) }

// Decode interprets the string through a single-byte charmap, falling back
// to the raw bytes when the mapping fails.
func (c CString) Decode(encoding *charmap.Charmap) string {
	buf, err := encoding.NewDecoder().Bytes(c.NullTerminateBytes())
	if err != nil {
		return c.String()
	}
	return string(buf)
}
