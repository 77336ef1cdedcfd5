package gif

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/text/encoding/charmap"

	"gitgub.com/cam-per/gifdec/gif/lzw"
	"gitgub.com/cam-per/gifdec/utils"
)

const (
	gif87a = "GIF87a"
	gif89a = "GIF89a"
)

const netscapeIdent = "NETSCAPE2.0"

// parser walks the GIF container sequentially from a cursor, tracking its
// absolute position so image descriptors can be revisited later.
type parser struct {
	cur Cursor
	pos int64

	version string
	screen  screenDescriptor
	global  ColorTable

	control   graphicControl
	loopCount int
	comments  []string
}

// newParser reads the header, logical screen descriptor and global color
// table, leaving the cursor at the first block introducer.
func newParser(cur Cursor) (*parser, error) {
	parser := &parser{cur: cur, control: defaultGraphicControl(), loopCount: -1}

	var sig [6]byte
	if _, err := io.ReadFull(parser, sig[:]); err != nil {
		if isSourceError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: short header", ErrNotAGif)
	}
	parser.version = string(sig[:])
	if parser.version != gif87a && parser.version != gif89a {
		return nil, fmt.Errorf("%w: signature %q", ErrNotAGif, parser.version)
	}

	if err := binary.Read(parser, binary.LittleEndian, &parser.screen); err != nil {
		return nil, corrupt(err)
	}
	if parser.screen.Packed&fGlobalColorTable != 0 {
		table, err := parser.readColorTable(int(parser.screen.Packed & fColorTableSize))
		if err != nil {
			return nil, err
		}
		parser.global = table
	}
	return parser, nil
}

// replayParser positions a parser directly at a known image descriptor,
// reusing the screen state captured during the index build.
func replayParser(cur Cursor, offset int64, screen screenDescriptor, global ColorTable) *parser {
	return &parser{
		cur:     cur,
		pos:     offset,
		screen:  screen,
		global:  global,
		control: defaultGraphicControl(),
	}
}

func (parser *parser) Read(p []byte) (int, error) {
	n, err := parser.cur.Read(p)
	parser.pos += int64(n)
	return n, err
}

func (parser *parser) skip(n int64) error {
	if err := parser.cur.Skip(n); err != nil {
		return corrupt(err)
	}
	parser.pos += n
	return nil
}

func (parser *parser) readColorTable(sizeBits int) (ColorTable, error) {
	count := 1 << (sizeBits + 1)
	raw := make([]byte, 3*count)
	if _, err := io.ReadFull(parser, raw); err != nil {
		return nil, corrupt(err)
	}
	table := make(ColorTable, count)
	for i := range table {
		table[i] = uint32(raw[3*i])<<16 | uint32(raw[3*i+1])<<8 | uint32(raw[3*i+2])
	}
	return table, nil
}

// nextImage walks blocks until the next image descriptor and returns its
// typed record, with the pending graphic-control state attached. A nil
// record means the trailer was reached.
func (parser *parser) nextImage() (*imageMeta, error) {
	for {
		introducer, err := utils.ReadByte(parser)
		if err != nil {
			return nil, corrupt(err)
		}
		switch introducer {
		case blockImage:
			return parser.readImage()
		case blockExtension:
			if err := parser.readExtension(); err != nil {
				return nil, err
			}
		case blockTrailer:
			return nil, nil
		default:
			return nil, fmt.Errorf("%w: unknown block introducer 0x%02X", ErrCorrupt, introducer)
		}
	}
}

func (parser *parser) readImage() (*imageMeta, error) {
	offset := parser.pos

	var desc imageDescriptor
	if err := binary.Read(parser, binary.LittleEndian, &desc); err != nil {
		return nil, corrupt(err)
	}

	meta := &imageMeta{
		offset:     offset,
		left:       int(desc.Left),
		top:        int(desc.Top),
		width:      int(desc.Width),
		height:     int(desc.Height),
		interlaced: desc.Packed&ifInterlace != 0,
		control:    parser.control,
	}
	parser.control = defaultGraphicControl()

	if desc.Packed&ifLocalColorTable != 0 {
		table, err := parser.readColorTable(int(desc.Packed & fColorTableSize))
		if err != nil {
			return nil, err
		}
		meta.local = table
	}

	if meta.left+meta.width > int(parser.screen.Width) || meta.top+meta.height > int(parser.screen.Height) {
		return nil, fmt.Errorf("%w: frame %dx%d+%d+%d outside %dx%d screen",
			ErrCorrupt, meta.width, meta.height, meta.left, meta.top, parser.screen.Width, parser.screen.Height)
	}
	if meta.local == nil && parser.global == nil {
		return nil, fmt.Errorf("%w: frame has no color table", ErrCorrupt)
	}
	return meta, nil
}

func (parser *parser) readExtension() error {
	label, err := utils.ReadByte(parser)
	if err != nil {
		return corrupt(err)
	}
	switch label {
	case extGraphicControl:
		return parser.readGraphicControl()
	case extApplication:
		return parser.readApplication()
	case extComment:
		data, err := parser.readSubBlocks()
		if err != nil {
			return err
		}
		parser.comments = append(parser.comments, utils.CString(data).Decode(charmap.Windows1252))
		return nil
	case extPlainText:
		return parser.skipSubBlocks()
	default:
		return parser.skipSubBlocks()
	}
}

func (parser *parser) readGraphicControl() error {
	size, err := utils.ReadByte(parser)
	if err != nil {
		return corrupt(err)
	}
	packed, err := utils.ReadByte(parser)
	if err != nil {
		return corrupt(err)
	}
	delay, err := utils.ReadUint16LE(parser)
	if err != nil {
		return corrupt(err)
	}
	transparent, err := utils.ReadByte(parser)
	if err != nil {
		return corrupt(err)
	}
	terminator, err := utils.ReadByte(parser)
	if err != nil {
		return corrupt(err)
	}
	if size != 4 || terminator != 0 {
		return fmt.Errorf("%w: malformed graphic control extension", ErrCorrupt)
	}

	parser.control.disposal = DisposalMethod((packed & gcDisposalMask) >> 2)
	if parser.control.disposal > DisposalPrevious {
		parser.control.disposal = DisposalUnspecified
	}
	parser.control.transparent = -1
	if packed&gcTransparentSet != 0 {
		parser.control.transparent = int(transparent)
	}

	parser.control.duration = time.Duration(delay) * centisecond
	if parser.control.duration == 0 {
		parser.control.duration = defaultFrameDuration
	}
	return nil
}

func (parser *parser) readApplication() error {
	length, err := utils.ReadByte(parser)
	if err != nil {
		return corrupt(err)
	}
	ident := make([]byte, length)
	if _, err := io.ReadFull(parser, ident); err != nil {
		return corrupt(err)
	}
	// Compare on the prefix before any NUL byte, so trailing zero padding
	// is ignored; the bytes before it must read exactly NETSCAPE2.0.
	if utils.CString(ident).String() == netscapeIdent {
		data, err := parser.readSubBlocks()
		if err != nil {
			return err
		}
		if len(data) >= 3 && data[0] == 0x01 {
			parser.loopCount = int(data[1]) | int(data[2])<<8
		}
		return nil
	}
	return parser.skipSubBlocks()
}

func (parser *parser) readSubBlocks() ([]byte, error) {
	var data []byte
	for {
		length, err := utils.ReadByte(parser)
		if err != nil {
			return nil, corrupt(err)
		}
		if length == 0 {
			return data, nil
		}
		chunk := make([]byte, length)
		if _, err := io.ReadFull(parser, chunk); err != nil {
			return nil, corrupt(err)
		}
		data = append(data, chunk...)
	}
}

func (parser *parser) skipSubBlocks() error {
	for {
		length, err := utils.ReadByte(parser)
		if err != nil {
			return corrupt(err)
		}
		if length == 0 {
			return nil
		}
		if err := parser.skip(int64(length)); err != nil {
			return err
		}
	}
}

// skipImageData validates the LZW minimum code size and skips the compressed
// sub-blocks. Used by the index pass, which does not need pixels.
func (parser *parser) skipImageData() error {
	litWidth, err := utils.ReadByte(parser)
	if err != nil {
		return corrupt(err)
	}
	if litWidth < 1 || litWidth > 8 {
		return fmt.Errorf("%w: LZW minimum code size %d", ErrUnsupported, litWidth)
	}
	return parser.skipSubBlocks()
}

// decodeImageData decompresses the image's palette-index stream, undoing
// interlacing, and leaves the cursor past the block terminator.
func (parser *parser) decodeImageData(meta *imageMeta) ([]byte, error) {
	litWidth, err := utils.ReadByte(parser)
	if err != nil {
		return nil, corrupt(err)
	}
	if litWidth < 1 || litWidth > 8 {
		return nil, fmt.Errorf("%w: LZW minimum code size %d", ErrUnsupported, litWidth)
	}

	block := &blockReader{parser: parser}
	decoder, err := lzw.NewDecoder(block, int(litWidth))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	indices := make([]byte, meta.width*meta.height)
	if err := decoder.Decode(indices); err != nil {
		if isSourceError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := block.drain(); err != nil {
		return nil, err
	}

	if meta.interlaced {
		uninterlace(indices, meta.width, meta.height)
	}
	return indices, nil
}

// blockReader flattens a GIF sub-block chain into a plain byte stream for
// the LZW decoder. Reading past the terminating zero-length block yields
// io.EOF.
type blockReader struct {
	parser *parser
	n      int
	done   bool
}

func (block *blockReader) ReadByte() (byte, error) {
	if block.done {
		return 0, io.EOF
	}
	for block.n == 0 {
		length, err := utils.ReadByte(block.parser)
		if err != nil {
			return 0, err
		}
		if length == 0 {
			block.done = true
			return 0, io.EOF
		}
		block.n = int(length)
	}
	block.n--
	return utils.ReadByte(block.parser)
}

// drain consumes the remainder of the sub-block chain so the parser ends up
// positioned after the block terminator.
func (block *blockReader) drain() error {
	if block.done {
		return nil
	}
	if block.n > 0 {
		if err := block.parser.skip(int64(block.n)); err != nil {
			return err
		}
		block.n = 0
	}
	if err := block.parser.skipSubBlocks(); err != nil {
		return err
	}
	block.done = true
	return nil
}

// interlaceScan is one pass of the GIF87a interlace layout.
type interlaceScan struct {
	skip, start int
}

var interlacing = []interlaceScan{
	{8, 0},
	{8, 4},
	{4, 2},
	{2, 1},
}

// uninterlace rearranges rows stored in interlace pass order into their
// logical top-to-bottom order.
func uninterlace(indices []byte, width, height int) {
	ordered := make([]byte, len(indices))
	offset := 0
	for _, pass := range interlacing {
		for y := pass.start; y < height; y += pass.skip {
			copy(ordered[y*width:(y+1)*width], indices[offset:offset+width])
			offset += width
		}
	}
	copy(indices, ordered)
}

// corrupt maps an end-of-stream inside a structure onto the corrupt-stream
// error; genuine source failures pass through untouched.
func corrupt(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: unexpected end of stream", ErrCorrupt)
	}
	return err
}

// isSourceError reports whether err came from the byte source itself rather
// than from malformed stream contents.
func isSourceError(err error) bool {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return false
	case errors.Is(err, lzw.ErrTruncated), errors.Is(err, lzw.ErrCodeOutOfRange),
		errors.Is(err, lzw.ErrUnderrun), errors.Is(err, lzw.ErrLitWidth):
		return false
	}
	return true
}
