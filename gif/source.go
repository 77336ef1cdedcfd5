package gif

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Cursor reads bytes sequentially from a fixed position in a ByteSource.
type Cursor interface {
	io.Reader
	io.ByteReader
	Skip(n int64) error
}

// ByteSource is random-access byte storage holding a GIF stream. Every call
// to Cursor or CursorAt yields an independent sequential reader, so several
// cursors over the same source never interfere.
type ByteSource interface {
	Cursor() (Cursor, error)
	CursorAt(offset int64) (Cursor, error)
	Close() error
}

type cursor struct {
	*bufio.Reader
}

func (c *cursor) Skip(n int64) error {
	_, err := c.Discard(int(n))
	return err
}

// FileSource serves cursors over a file on disk.
type FileSource struct {
	file *os.File
	size int64
}

func OpenFile(path string) (*FileSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	return &FileSource{file: file, size: info.Size()}, nil
}

func (source *FileSource) Cursor() (Cursor, error) { return source.CursorAt(0) }

func (source *FileSource) CursorAt(offset int64) (Cursor, error) {
	if offset < 0 || offset > source.size {
		return nil, fmt.Errorf("cursor at %d: %w", offset, ErrInvalidArgument)
	}
	section := io.NewSectionReader(source.file, offset, source.size-offset)
	return &cursor{bufio.NewReader(section)}, nil
}

func (source *FileSource) Close() error { return source.file.Close() }

// BytesSource serves cursors over an in-memory GIF stream.
type BytesSource struct {
	data []byte
}

func NewBytesSource(data []byte) *BytesSource { return &BytesSource{data: data} }

func (source *BytesSource) Cursor() (Cursor, error) { return source.CursorAt(0) }

func (source *BytesSource) CursorAt(offset int64) (Cursor, error) {
	if offset < 0 || offset > int64(len(source.data)) {
		return nil, fmt.Errorf("cursor at %d: %w", offset, ErrInvalidArgument)
	}
	return &sliceCursor{data: source.data[offset:]}, nil
}

func (source *BytesSource) Close() error { return nil }

type sliceCursor struct {
	data []byte
}

func (c *sliceCursor) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	n := copy(p, c.data)
	c.data = c.data[n:]
	return n, nil
}

func (c *sliceCursor) ReadByte() (byte, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	b := c.data[0]
	c.data = c.data[1:]
	return b, nil
}

func (c *sliceCursor) Skip(n int64) error {
	if n > int64(len(c.data)) {
		c.data = nil
		return io.EOF
	}
	c.data = c.data[n:]
	return nil
}
