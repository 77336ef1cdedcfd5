package gif_test

import (
	"bytes"
	complzw "compress/lzw"
	"encoding/binary"
	"testing"

	"gitgub.com/cam-per/gifdec/gif"
)

// ARGB shorthands used by the scenario tests.
const (
	clear = uint32(0x00000000)
	red   = uint32(0xFFFF0000)
	green = uint32(0xFF00FF00)
	blue  = uint32(0xFF0000FF)
	black = uint32(0xFF000000)
	white = uint32(0xFFFFFFFF)
)

// palette packs RGB triples and pads them to the next power-of-two color
// count the descriptor size field can express.
func palette(colors ...[3]byte) []byte {
	count := 2
	for count < len(colors) {
		count *= 2
	}
	out := make([]byte, 0, 3*count)
	for _, c := range colors {
		out = append(out, c[0], c[1], c[2])
	}
	for i := len(colors); i < count; i++ {
		out = append(out, 0, 0, 0)
	}
	return out
}

func paletteSizeBits(table []byte) byte {
	count := len(table) / 3
	bits := byte(0)
	for 1<<(bits+1) < count {
		bits++
	}
	return bits
}

// builder assembles a GIF stream byte by byte, compressing image data with
// the standard library's LSB LZW writer and splitting it into sub-blocks.
type builder struct {
	buf bytes.Buffer
}

func newBuilder(width, height int, global []byte, background byte) *builder {
	b := &builder{}
	b.buf.WriteString("GIF89a")
	binary.Write(&b.buf, binary.LittleEndian, uint16(width))
	binary.Write(&b.buf, binary.LittleEndian, uint16(height))
	packed := byte(0)
	if global != nil {
		packed = 0x80 | paletteSizeBits(global)
	}
	b.buf.WriteByte(packed)
	b.buf.WriteByte(background)
	b.buf.WriteByte(0)
	if global != nil {
		b.buf.Write(global)
	}
	return b
}

func (b *builder) graphicControl(disposal gif.DisposalMethod, transparent, delayCS int) *builder {
	b.buf.Write([]byte{0x21, 0xF9, 4})
	packed := byte(disposal) << 2
	if transparent >= 0 {
		packed |= 1
	}
	b.buf.WriteByte(packed)
	binary.Write(&b.buf, binary.LittleEndian, uint16(delayCS))
	if transparent >= 0 {
		b.buf.WriteByte(byte(transparent))
	} else {
		b.buf.WriteByte(0)
	}
	b.buf.WriteByte(0)
	return b
}

func (b *builder) image(left, top, width, height int, local []byte, indices []byte) *builder {
	return b.imageOpts(left, top, width, height, local, false, indices)
}

func (b *builder) imageOpts(left, top, width, height int, local []byte, interlaced bool, indices []byte) *builder {
	b.buf.WriteByte(0x2C)
	binary.Write(&b.buf, binary.LittleEndian, uint16(left))
	binary.Write(&b.buf, binary.LittleEndian, uint16(top))
	binary.Write(&b.buf, binary.LittleEndian, uint16(width))
	binary.Write(&b.buf, binary.LittleEndian, uint16(height))
	packed := byte(0)
	if local != nil {
		packed |= 0x80 | paletteSizeBits(local)
	}
	if interlaced {
		packed |= 0x40
	}
	b.buf.WriteByte(packed)
	if local != nil {
		b.buf.Write(local)
	}

	litWidth := 2
	for _, idx := range indices {
		for int(idx) >= 1<<litWidth {
			litWidth++
		}
	}
	b.buf.WriteByte(byte(litWidth))

	var compressed bytes.Buffer
	writer := complzw.NewWriter(&compressed, complzw.LSB, litWidth)
	writer.Write(indices)
	writer.Close()

	data := compressed.Bytes()
	for len(data) > 0 {
		n := len(data)
		if n > 255 {
			n = 255
		}
		b.buf.WriteByte(byte(n))
		b.buf.Write(data[:n])
		data = data[n:]
	}
	b.buf.WriteByte(0)
	return b
}

// rawImage writes an image descriptor followed by verbatim sub-blocks, for
// malformed-stream tests.
func (b *builder) rawImage(left, top, width, height int, litWidth byte, blocks ...[]byte) *builder {
	b.buf.WriteByte(0x2C)
	binary.Write(&b.buf, binary.LittleEndian, uint16(left))
	binary.Write(&b.buf, binary.LittleEndian, uint16(top))
	binary.Write(&b.buf, binary.LittleEndian, uint16(width))
	binary.Write(&b.buf, binary.LittleEndian, uint16(height))
	b.buf.WriteByte(0)
	b.buf.WriteByte(litWidth)
	for _, block := range blocks {
		b.buf.WriteByte(byte(len(block)))
		b.buf.Write(block)
	}
	b.buf.WriteByte(0)
	return b
}

func (b *builder) netscapeLoop(count int) *builder {
	b.buf.Write([]byte{0x21, 0xFF, 11})
	b.buf.WriteString("NETSCAPE2.0")
	b.buf.Write([]byte{3, 1, byte(count), byte(count >> 8), 0})
	return b
}

func (b *builder) comment(text string) *builder {
	b.buf.Write([]byte{0x21, 0xFE, byte(len(text))})
	b.buf.WriteString(text)
	b.buf.WriteByte(0)
	return b
}

func (b *builder) done() []byte {
	b.buf.WriteByte(0x3B)
	return b.buf.Bytes()
}

func open(t *testing.T, data []byte, cacheInterval int) *gif.Decoder {
	t.Helper()
	decoder, err := gif.NewDecoder(gif.NewBytesSource(data), cacheInterval)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	t.Cleanup(func() { decoder.Close() })
	return decoder
}

func readFrame(t *testing.T, decoder *gif.Decoder, index int) *gif.ImageFrame {
	t.Helper()
	frame, err := decoder.ReadFrame(index)
	if err != nil {
		t.Fatalf("ReadFrame(%d): %v", index, err)
	}
	return frame
}

func collect(t *testing.T, decoder *gif.Decoder) []*gif.ImageFrame {
	t.Helper()
	var frames []*gif.ImageFrame
	for frame, err := range decoder.Frames() {
		if err != nil {
			t.Fatalf("Frames() at %d: %v", len(frames), err)
		}
		frames = append(frames, frame)
	}
	return frames
}

func equalARGB(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
