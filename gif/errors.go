package gif

import "errors"

var (
	ErrNotAGif         = errors.New("gif: not a GIF stream")
	ErrUnsupported     = errors.New("gif: unsupported feature")
	ErrCorrupt         = errors.New("gif: corrupt stream")
	ErrOutOfRange      = errors.New("gif: frame index out of range")
	ErrInvalidArgument = errors.New("gif: invalid argument")
	ErrEmpty           = errors.New("gif: no frames")
	ErrClosed          = errors.New("gif: decoder is closed")
)
