package lzw

import (
	"errors"
	"io"
)

var ErrTruncated = errors.New("lzw: truncated code stream")

// BitReader extracts variable-width codes from a byte stream, LSB first
// within each byte and packed across byte boundaries. Codes are pulled on
// demand so a width change between reads takes effect immediately.
type BitReader struct {
	r   io.ByteReader
	acc uint32
	n   uint
}

func NewBitReader(r io.ByteReader) *BitReader { return &BitReader{r: r} }

func (reader *BitReader) ReadBits(width uint) (int, error) {
	for reader.n < width {
		b, err := reader.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = ErrTruncated
			}
			return 0, err
		}
		reader.acc |= uint32(b) << reader.n
		reader.n += 8
	}
	code := int(reader.acc & (1<<width - 1))
	reader.acc >>= width
	reader.n -= width
	return code, nil
}
