// Package gif decodes GIF87a and GIF89a animations into fully composed
// ARGB frames, with random access by frame index or timestamp.
package gif

import (
	"fmt"
	"iter"
	"sort"
	"time"
)

// DefaultCacheInterval is the cache stride used when callers have no reason
// to pick another one.
const DefaultCacheInterval = 50

// Decoder owns a ByteSource and an index of its frames. It is not safe for
// concurrent use; independent Decoders over independent sources are.
type Decoder struct {
	source        ByteSource
	cacheInterval int

	version string
	screen  screenDescriptor
	global  ColorTable

	frames    []*frameDesc
	duration  time.Duration
	loopCount int
	comments  []string

	closed bool
}

// NewDecoder scans the whole stream once, building the frame index and
// materializing canvas caches every cacheInterval frames. The source stays
// owned by the decoder and is released by Close.
func NewDecoder(source ByteSource, cacheInterval int) (*Decoder, error) {
	if cacheInterval <= 0 {
		return nil, fmt.Errorf("cache interval %d: %w", cacheInterval, ErrInvalidArgument)
	}
	decoder := &Decoder{source: source, cacheInterval: cacheInterval}
	if err := decoder.buildIndex(); err != nil {
		return nil, err
	}
	if err := decoder.buildCaches(); err != nil {
		return nil, err
	}
	return decoder, nil
}

func (decoder *Decoder) buildIndex() error {
	cur, err := decoder.source.Cursor()
	if err != nil {
		return err
	}
	parser, err := newParser(cur)
	if err != nil {
		return err
	}
	decoder.version = parser.version
	decoder.screen = parser.screen
	decoder.global = parser.global

	timestamp := time.Duration(0)
	for {
		meta, err := parser.nextImage()
		if err != nil {
			return err
		}
		if meta == nil {
			break
		}

		frame := &frameDesc{
			index:       len(decoder.frames),
			offset:      meta.offset,
			left:        meta.left,
			top:         meta.top,
			width:       meta.width,
			height:      meta.height,
			disposal:    meta.control.disposal,
			transparent: meta.control.transparent,
			duration:    meta.control.duration,
			timestamp:   timestamp,
			localTable:  meta.local != nil,
			interlaced:  meta.interlaced,
		}
		covers := frame.left == 0 && frame.top == 0 &&
			frame.width == int(decoder.screen.Width) && frame.height == int(decoder.screen.Height)
		frame.keyframe = frame.index == 0 || (covers && frame.transparent < 0)

		timestamp += frame.duration
		decoder.frames = append(decoder.frames, frame)

		if err := parser.skipImageData(); err != nil {
			return err
		}
	}
	decoder.duration = timestamp
	decoder.loopCount = parser.loopCount
	decoder.comments = parser.comments
	return nil
}

// buildCaches composes every cacheInterval-th frame, ascending so each
// cache seeds the next. The cached canvases act as synthetic keyframes for
// random access.
func (decoder *Decoder) buildCaches() error {
	for k := 0; k < len(decoder.frames); k += decoder.cacheInterval {
		argb, err := decoder.compose(k)
		if err != nil {
			return err
		}
		decoder.frames[k].cached = argb
	}
	return nil
}

func (decoder *Decoder) Version() string      { return decoder.version }
func (decoder *Decoder) Width() int           { return int(decoder.screen.Width) }
func (decoder *Decoder) Height() int          { return int(decoder.screen.Height) }
func (decoder *Decoder) FrameCount() int      { return len(decoder.frames) }
func (decoder *Decoder) LoopCount() int       { return decoder.loopCount }
func (decoder *Decoder) BackgroundIndex() int { return int(decoder.screen.Background) }

// Duration is the sum of all frame durations.
func (decoder *Decoder) Duration() time.Duration { return decoder.duration }

// GlobalColorTable returns a copy of the global palette as 0x00RRGGBB
// entries, or nil when the stream carries none.
func (decoder *Decoder) GlobalColorTable() ColorTable {
	if decoder.global == nil {
		return nil
	}
	table := make(ColorTable, len(decoder.global))
	copy(table, decoder.global)
	return table
}

// Comments returns the texts of any comment extensions, in stream order.
func (decoder *Decoder) Comments() []string {
	comments := make([]string, len(decoder.comments))
	copy(comments, decoder.comments)
	return comments
}

// FrameInfos returns per-frame timing: each frame's display duration and
// its cumulative timestamp.
func (decoder *Decoder) FrameInfos() []FrameInfo {
	infos := make([]FrameInfo, len(decoder.frames))
	for i, frame := range decoder.frames {
		infos[i] = FrameInfo{Duration: frame.duration, Timestamp: frame.timestamp}
	}
	return infos
}

// ReadFrame composes the frame at index, replaying from the nearest prior
// keyframe or cached canvas.
func (decoder *Decoder) ReadFrame(index int) (*ImageFrame, error) {
	if decoder.closed {
		return nil, ErrClosed
	}
	if len(decoder.frames) == 0 {
		return nil, ErrEmpty
	}
	if index < 0 || index >= len(decoder.frames) {
		return nil, fmt.Errorf("frame %d of %d: %w", index, len(decoder.frames), ErrOutOfRange)
	}
	argb, err := decoder.compose(index)
	if err != nil {
		return nil, err
	}
	return decoder.imageFrame(index, argb), nil
}

// ReadFrameAt resolves a timestamp to the frame visible at that instant:
// the greatest index whose timestamp does not exceed at.
func (decoder *Decoder) ReadFrameAt(at time.Duration) (*ImageFrame, error) {
	if decoder.closed {
		return nil, ErrClosed
	}
	if len(decoder.frames) == 0 {
		return nil, ErrEmpty
	}
	if at < 0 || at > decoder.duration {
		return nil, fmt.Errorf("timestamp %v outside [0, %v]: %w", at, decoder.duration, ErrInvalidArgument)
	}
	index := sort.Search(len(decoder.frames), func(i int) bool {
		return decoder.frames[i].timestamp > at
	}) - 1
	if index < 0 {
		index = 0
	}
	return decoder.ReadFrame(index)
}

// Frames iterates all frames in order, sharing one composition pass. The
// sequence is restartable only by calling Frames again; a decode failure is
// yielded once with a nil frame and ends the sequence.
func (decoder *Decoder) Frames() iter.Seq2[*ImageFrame, error] {
	return func(yield func(*ImageFrame, error) bool) {
		if decoder.closed {
			yield(nil, ErrClosed)
			return
		}
		comp := newCompositor(decoder.screen, decoder.global)
		for _, frame := range decoder.frames {
			if err := decoder.renderInto(comp, frame); err != nil {
				yield(nil, err)
				return
			}
			if !yield(decoder.imageFrame(frame.index, comp.snapshot()), nil) {
				return
			}
			comp.dispose(frame)
		}
	}
}

// Close releases the byte source. Any further read fails with ErrClosed.
func (decoder *Decoder) Close() error {
	if decoder.closed {
		return ErrClosed
	}
	decoder.closed = true
	return decoder.source.Close()
}

func (decoder *Decoder) imageFrame(index int, argb []uint32) *ImageFrame {
	frame := decoder.frames[index]
	return &ImageFrame{
		ARGB:      argb,
		Width:     decoder.Width(),
		Height:    decoder.Height(),
		Duration:  frame.duration,
		Timestamp: frame.timestamp,
		Index:     index,
	}
}

// seedFor picks the replay start for frame n: the nearest prior cached
// canvas or keyframe. A frame that disposes to previous cannot seed frames
// past itself: what it restores depends on canvas history that neither a
// cache nor a keyframe replay reproduces. Frame 0 is exempt, since every
// composition starts from the same cleared canvas there.
func (decoder *Decoder) seedFor(n int) (int, bool) {
	for k := n; k > 0; k-- {
		frame := decoder.frames[k]
		if k != n && frame.disposal == DisposalPrevious {
			continue
		}
		if frame.cached != nil {
			return k, true
		}
		if frame.keyframe {
			return k, false
		}
	}
	if decoder.frames[0].cached != nil {
		return 0, true
	}
	return 0, false
}

// compose renders frame n and returns an owned ARGB buffer.
func (decoder *Decoder) compose(n int) ([]uint32, error) {
	seed, useCache := decoder.seedFor(n)
	comp := newCompositor(decoder.screen, decoder.global)

	start := seed
	if useCache {
		comp.seed(decoder.frames[seed], decoder.frames[seed].cached)
		if seed == n {
			return comp.snapshot(), nil
		}
		comp.dispose(decoder.frames[seed])
		start = seed + 1
	}
	for i := start; i <= n; i++ {
		if err := decoder.renderInto(comp, decoder.frames[i]); err != nil {
			return nil, err
		}
		if i < n {
			comp.dispose(decoder.frames[i])
		}
	}
	return comp.snapshot(), nil
}

// renderInto re-parses one frame from its recorded offset, decompresses its
// index stream and applies it onto the compositor canvas.
func (decoder *Decoder) renderInto(comp *compositor, frame *frameDesc) error {
	cur, err := decoder.source.CursorAt(frame.offset)
	if err != nil {
		return err
	}
	parser := replayParser(cur, frame.offset, decoder.screen, decoder.global)
	meta, err := parser.readImage()
	if err != nil {
		return err
	}
	indices, err := parser.decodeImageData(meta)
	if err != nil {
		return err
	}

	table := decoder.global
	if meta.local != nil {
		table = meta.local
	}
	for _, idx := range indices {
		if int(idx) >= len(table) && int(idx) != frame.transparent {
			return fmt.Errorf("%w: palette index %d beyond %d-color table", ErrCorrupt, idx, len(table))
		}
	}

	comp.apply(frame, indices, table)
	return nil
}
