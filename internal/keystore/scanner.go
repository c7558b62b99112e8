package keystore

import (
	"bytes"
	"errors"
	"io"
)

const readSize = 4096

type EventKind int

const (
	// EventRecord is a well-formed terminated line.
	EventRecord EventKind = iota
	// EventCorrupt is a terminated line with a NUL byte or without a SP.
	EventCorrupt
	// EventTruncated is the unterminated remainder at end of input.
	EventTruncated
	// EventTruncatedNUL follows EventTruncated when the remainder holds a NUL.
	EventTruncatedNUL
)

// Event describes one located line. [Begin, End) covers the whole line,
// terminator included.
type Event struct {
	Kind   EventKind
	Line   int
	Begin  int
	End    int
	Record Record // EventRecord only

	// Corruption causes, EventCorrupt only.
	NUL  bool
	NoSP bool
}

// Matches reports whether e is a valid record named name. Comparison is exact.
func (e Event) Matches(name string) bool {
	return e.Kind == EventRecord && e.Record.Name == name
}

// Cursor is resumable scan state over a buffer that grows at its end between
// calls. Read is the start of the current line, Ahead the first byte not yet
// searched for a terminator and Line the number of terminated lines passed.
type Cursor struct {
	Read  int
	Ahead int
	Line  int
}

// Next searches data[c.Ahead:] for the next LF. When one is found the line
// range is returned and the cursor moves past it; otherwise Ahead moves to
// len(data) so the bytes are not searched again.
func (c *Cursor) Next(data []byte) (begin, end int, ok bool) {
	i := bytes.IndexByte(data[c.Ahead:], '\n')
	if i < 0 {
		c.Ahead = len(data)
		return 0, 0, false
	}
	begin, end = c.Read, c.Ahead+i+1
	c.Read, c.Ahead = end, end
	c.Line++
	return begin, end, true
}

// Scanner reads a store file incrementally and yields one Event per line.
// The buffer it accumulates can be edited through Replace while scanning.
type Scanner struct {
	r       io.Reader
	buf     []byte
	cur     Cursor
	eof     bool
	done    bool
	err     error
	ev      Event
	pending *Event
}

// NewScanner returns a Scanner over r. A nil r is an empty store.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: r, eof: r == nil}
}

// Scan advances to the next event.
func (s *Scanner) Scan() bool {
	for {
		if s.pending != nil {
			s.ev, s.pending = *s.pending, nil
			return true
		}
		if s.done {
			return false
		}
		if begin, end, ok := s.cur.Next(s.buf); ok {
			s.ev = classify(s.buf, begin, end, s.cur.Line)
			return true
		}
		if s.eof {
			s.done = true
			if s.cur.Read == len(s.buf) {
				return false
			}
			s.ev = Event{Kind: EventTruncated, Line: s.cur.Line + 1, Begin: s.cur.Read, End: len(s.buf)}
			if bytes.IndexByte(s.buf[s.cur.Read:], 0) >= 0 {
				nul := s.ev
				nul.Kind = EventTruncatedNUL
				s.pending = &nul
			}
			return true
		}
		s.fill()
	}
}

func (s *Scanner) fill() {
	if len(s.buf) == cap(s.buf) {
		nb := make([]byte, len(s.buf), 2*cap(s.buf)+readSize)
		copy(nb, s.buf)
		s.buf = nb
	}
	n, err := s.r.Read(s.buf[len(s.buf):cap(s.buf)])
	s.buf = s.buf[:len(s.buf)+n]
	switch {
	case errors.Is(err, io.EOF):
		s.eof = true
	case err != nil:
		s.err = err
		s.done = true
	}
}

func classify(buf []byte, begin, end, line int) Event {
	ev := Event{Kind: EventRecord, Line: line, Begin: begin, End: end}
	l := buf[begin : end-1]
	ev.NUL = bytes.IndexByte(l, 0) >= 0
	sp := bytes.IndexByte(l, ' ')
	ev.NoSP = sp < 0
	if ev.NUL || ev.NoSP {
		ev.Kind = EventCorrupt
		return ev
	}
	ev.Record = Record{Name: string(l[:sp]), Hash: string(l[sp+1:])}
	return ev
}

// Event returns the current event.
func (s *Scanner) Event() Event { return s.ev }

// Err returns the first read error.
func (s *Scanner) Err() error { return s.err }

// Bytes returns everything read so far, including edits.
func (s *Scanner) Bytes() []byte { return s.buf }

// Offset is the end of the last terminated line. Once Scan has returned false
// it is where a new record is appended.
func (s *Scanner) Offset() int { return s.cur.Read }

// Replace substitutes repl for the line of the current event and continues
// scanning right after it. Line numbers keep counting the original lines.
func (s *Scanner) Replace(repl []byte) {
	ev := s.ev
	if ev.Kind == EventTruncated || ev.Kind == EventTruncatedNUL {
		panic("keystore: Replace on a truncated line")
	}
	s.buf = Splice(s.buf, ev.Begin, ev.End, repl)
	next := ev.Begin + len(repl)
	s.cur.Read, s.cur.Ahead = next, next
	s.ev.End = next
}
