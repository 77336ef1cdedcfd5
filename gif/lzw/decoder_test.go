package lzw

import (
	"bytes"
	complzw "compress/lzw"
	"errors"
	"math/rand"
	"testing"
)

// compress produces a GIF-compatible raw LZW code stream using the standard
// library's LSB writer as the reference encoder.
func compress(t *testing.T, data []byte, litWidth int) []byte {
	t.Helper()
	var buf bytes.Buffer
	writer := complzw.NewWriter(&buf, complzw.LSB, litWidth)
	if _, err := writer.Write(data); err != nil {
		t.Fatalf("reference encoder: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("reference encoder close: %v", err)
	}
	return buf.Bytes()
}

func decode(t *testing.T, stream []byte, litWidth, want int) ([]byte, error) {
	t.Helper()
	decoder, err := NewDecoder(bytes.NewReader(stream), litWidth)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	dst := make([]byte, want)
	return dst, decoder.Decode(dst)
}

func randomIndices(n, max int, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed))
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(rng.Intn(max))
	}
	return data
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name     string
		litWidth int
		data     []byte
	}{
		{"single", 2, []byte{1}},
		{"run", 2, bytes.Repeat([]byte{3}, 500)},
		{"alternating", 2, bytes.Repeat([]byte{0, 1, 2, 3}, 64)},
		{"random4", 2, randomIndices(1000, 4, 1)},
		{"random16", 4, randomIndices(2000, 16, 2)},
		{"random256", 8, randomIndices(4096, 256, 3)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stream := compress(t, tc.data, tc.litWidth)
			dst, err := decode(t, stream, tc.litWidth, len(tc.data))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !bytes.Equal(dst, tc.data) {
				t.Fatalf("round trip mismatch: got %d bytes, want %d", len(dst), len(tc.data))
			}
		})
	}
}

// TestRoundTripLarge pushes the code table through its full width range,
// including reference-encoder resets near the 12-bit ceiling.
func TestRoundTripLarge(t *testing.T) {
	data := randomIndices(200000, 256, 42)
	stream := compress(t, data, 8)
	dst, err := decode(t, stream, 8, len(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(dst, data) {
		t.Fatal("round trip mismatch on large stream")
	}
}

// TestMinimumCodeSizeOne covers the 1-bit code size the reference encoder
// cannot produce: codes 0, 1 and end-of-information, each 2 bits wide.
func TestMinimumCodeSizeOne(t *testing.T) {
	dst, err := decode(t, []byte{0x34}, 1, 2)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(dst, []byte{0, 1}) {
		t.Fatalf("got %v, want [0 1]", dst)
	}
}

// TestClearCodeMidStream hand-packs [1, CLEAR, 1, END] at litWidth 2.
func TestClearCodeMidStream(t *testing.T) {
	dst, err := decode(t, []byte{0x61, 0x0A}, 2, 2)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(dst, []byte{1, 1}) {
		t.Fatalf("got %v, want [1 1]", dst)
	}
}

func TestLitWidthRange(t *testing.T) {
	for _, litWidth := range []int{-1, 0, 9, 12} {
		if _, err := NewDecoder(bytes.NewReader(nil), litWidth); !errors.Is(err, ErrLitWidth) {
			t.Errorf("litWidth %d: got %v, want ErrLitWidth", litWidth, err)
		}
	}
}

func TestTruncatedStream(t *testing.T) {
	data := randomIndices(300, 4, 7)
	stream := compress(t, data, 2)
	_, err := decode(t, stream[:len(stream)/2], 2, len(data))
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("got %v, want ErrTruncated", err)
	}
}

func TestUnderrun(t *testing.T) {
	stream := compress(t, []byte{0, 1, 2}, 2)
	_, err := decode(t, stream, 2, 10)
	if !errors.Is(err, ErrUnderrun) {
		t.Fatalf("got %v, want ErrUnderrun", err)
	}
}

func TestExcessIndicesIgnored(t *testing.T) {
	data := []byte{0, 1, 2, 3, 0, 1, 2, 3, 0, 1}
	stream := compress(t, data, 2)
	dst, err := decode(t, stream, 2, 5)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(dst, data[:5]) {
		t.Fatalf("got %v, want %v", dst, data[:5])
	}
}

// TestInvalidCode feeds a code past the defined table as the first code.
func TestInvalidCode(t *testing.T) {
	_, err := decode(t, []byte{0x06}, 2, 4)
	if !errors.Is(err, ErrCodeOutOfRange) {
		t.Fatalf("got %v, want ErrCodeOutOfRange", err)
	}
}

func TestBitReaderWidths(t *testing.T) {
	// 0xB1 0x47 = bits 1000 1101 1110 0010, LSB first.
	reader := NewBitReader(bytes.NewReader([]byte{0xB1, 0x47}))
	for _, step := range []struct {
		width uint
		want  int
	}{
		{3, 0b001},
		{5, 0b10110},
		{4, 0b0111},
		{4, 0b0100},
	} {
		got, err := reader.ReadBits(step.width)
		if err != nil {
			t.Fatalf("ReadBits(%d): %v", step.width, err)
		}
		if got != step.want {
			t.Fatalf("ReadBits(%d) = %#b, want %#b", step.width, got, step.want)
		}
	}
	if _, err := reader.ReadBits(3); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated at end of stream")
	}
}
