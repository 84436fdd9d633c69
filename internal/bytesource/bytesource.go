// Package bytesource provides read-only, concurrency-safe, random-access
// views over the bytes hexbait is exploring: a local file, a captured
// stdin stream, or a range-restricted sub-view of either.
package bytesource

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/standardbeagle/hexbait/internal/types"
)

// ErrInputTooShort is returned when a read at a non-EOF position returns
// fewer bytes than were requested.
type ErrInputTooShort struct {
	Offset    types.AbsoluteOffset
	Requested int
	Got       int
}

func (e *ErrInputTooShort) Error() string {
	return fmt.Sprintf("input too short at offset %d: requested %d bytes, got %d", e.Offset, e.Requested, e.Got)
}

// ErrIO wraps a backend I/O failure.
type ErrIO struct {
	Offset types.AbsoluteOffset
	Err    error
}

func (e *ErrIO) Error() string {
	return fmt.Sprintf("io error at offset %d: %v", e.Offset, e.Err)
}

func (e *ErrIO) Unwrap() error {
	return e.Err
}

// Source is a random-access, length-reporting, read-only byte source.
// Implementations must support concurrent callers: no internal mutable
// state may be observable across reads.
type Source interface {
	// Length reports the number of bytes available. ok is false for a
	// source whose length is not yet known (e.g. stdin still filling);
	// Length then returns a best-effort, monotonically non-decreasing
	// upper bound.
	Length() (l types.Len, ok bool)

	// ReadAt fills buf with bytes starting at offset, returning the
	// prefix actually filled. A short prefix away from EOF is an error;
	// a short prefix ending exactly at EOF is not.
	ReadAt(offset types.AbsoluteOffset, buf []byte) (n int, err error)

	// Subview returns a Source whose offset 0 corresponds to w.Start of
	// this source. Reads at or past w.End of the parent return empty.
	Subview(w types.Window) Source
}

// readerAtSource adapts any io.ReaderAt with a fixed, known length.
type readerAtSource struct {
	ra     io.ReaderAt
	length types.Len
}

// FromReaderAt builds a Source over a fixed-length io.ReaderAt, e.g. an
// *os.File whose size is already known.
func FromReaderAt(ra io.ReaderAt, length types.Len) Source {
	return &readerAtSource{ra: ra, length: length}
}

func (s *readerAtSource) Length() (types.Len, bool) {
	return s.length, true
}

func (s *readerAtSource) ReadAt(offset types.AbsoluteOffset, buf []byte) (int, error) {
	if offset >= types.AbsoluteOffset(s.length) {
		return 0, nil
	}
	remaining := s.length - types.Len(offset)
	want := len(buf)
	if types.Len(want) > remaining {
		want = int(remaining)
	}
	n, err := s.ra.ReadAt(buf[:want], int64(offset))
	if err != nil && err != io.EOF {
		return n, &ErrIO{Offset: offset, Err: err}
	}
	if n < want {
		// We asked for `want` bytes, all of which should exist
		// (want <= remaining), so a short read here is a real problem.
		return n, &ErrInputTooShort{Offset: offset, Requested: want, Got: n}
	}
	return n, nil
}

func (s *readerAtSource) Subview(w types.Window) Source {
	return newSubview(s, w)
}

// FileSource opens a named file lazily and exposes it as a Source.
func FileSource(path string) (Source, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("bytesource: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("bytesource: stat %s: %w", path, err)
	}
	return FromReaderAt(f, types.Len(info.Size())), f.Close, nil
}

// subview restricts a parent Source to a Window, re-basing offset 0 to
// w.Start. It shares the parent's backing storage; it does not copy bytes.
type subview struct {
	parent Source
	window types.Window
}

func newSubview(parent Source, w types.Window) Source {
	return &subview{parent: parent, window: w}
}

func (s *subview) Length() (types.Len, bool) {
	return s.window.Size(), true
}

func (s *subview) ReadAt(offset types.AbsoluteOffset, buf []byte) (int, error) {
	size := s.window.Size()
	if offset >= types.AbsoluteOffset(size) {
		return 0, nil
	}
	remaining := size - types.Len(offset)
	want := len(buf)
	if types.Len(want) > remaining {
		want = int(remaining)
	}
	parentOffset := s.window.Start.Add(types.Len(offset))
	return s.parent.ReadAt(parentOffset, buf[:want])
}

func (s *subview) Subview(w types.Window) Source {
	// Re-base w (relative to this subview) into the parent's coordinate
	// space, clamped to this subview's own window.
	size := s.window.Size()
	start := w.Start
	end := w.End
	if types.Len(start) > size {
		start = types.AbsoluteOffset(size)
	}
	if types.Len(end) > size {
		end = types.AbsoluteOffset(size)
	}
	return newSubview(s.parent, types.Window{
		Start: s.window.Start.Add(types.Len(start)),
		End:   s.window.Start.Add(types.Len(end)),
	})
}

// memSource is a fully-buffered, in-memory Source used for stdin capture
// and for tests.
type memSource struct {
	mu   sync.RWMutex
	data []byte
}

// FromBytes wraps a byte slice as a Source. The slice is not copied; the
// caller must not mutate it afterwards.
func FromBytes(data []byte) Source {
	return &memSource{data: data}
}

func (s *memSource) Length() (types.Len, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.Len(len(s.data)), true
}

func (s *memSource) ReadAt(offset types.AbsoluteOffset, buf []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if offset >= types.AbsoluteOffset(len(s.data)) {
		return 0, nil
	}
	n := copy(buf, s.data[offset:])
	return n, nil
}

func (s *memSource) Subview(w types.Window) Source {
	return newSubview(s, w)
}

// ReadStdin drains stdin fully into memory and returns it as a Source.
// This is used when hexbait is invoked with no FILE argument: the input is
// finite once EOF is reached, after which Length reports ok=true.
func ReadStdin(r io.Reader) (Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("bytesource: read stdin: %w", err)
	}
	return FromBytes(data), nil
}
