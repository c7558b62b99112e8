package keystore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplice(t *testing.T) {
	tests := []struct {
		name       string
		buf        string
		begin, end int
		repl       string
		want       string
	}{
		{"same length", "a 1\nb 2\nc 3\n", 4, 8, "b 9\n", "a 1\nb 9\nc 3\n"},
		{"shorter slides left", "a 1\nb 2222\nc 3\n", 4, 11, "b 2\n", "a 1\nb 2\nc 3\n"},
		{"longer slides right", "a 1\nb 2\nc 3\n", 4, 8, "b 2222\n", "a 1\nb 2222\nc 3\n"},
		{"remove", "a 1\nb 2\nc 3\n", 4, 8, "", "a 1\nc 3\n"},
		{"remove last", "a 1\nb 2\n", 4, 8, "", "a 1\n"},
		{"remove all", "a 1\n", 0, 4, "", ""},
		{"insert at end", "a 1\n", 4, 4, "b 2\n", "a 1\nb 2\n"},
		{"insert into empty", "", 0, 0, "a 1\n", "a 1\n"},
		{"insert at start", "b 2\n", 0, 0, "a 1\n", "a 1\nb 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Splice([]byte(tt.buf), tt.begin, tt.end, []byte(tt.repl))
			assert.Equal(t, tt.want, string(got))
			assert.Len(t, got, len(tt.buf)-(tt.end-tt.begin)+len(tt.repl))
		})
	}
}

func TestSpliceOutOfRangePanics(t *testing.T) {
	assert.Panics(t, func() { Splice([]byte("abc"), 2, 1, nil) })
	assert.Panics(t, func() { Splice([]byte("abc"), 0, 4, nil) })
	assert.Panics(t, func() { Splice([]byte("abc"), -1, 1, nil) })
}
