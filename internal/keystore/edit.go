package keystore

import "fmt"

// Splice replaces buf[begin:end] with repl and returns the edited buffer,
// which may share storage with buf. Bytes before begin and from end onwards
// keep their order; the result is len(buf)-(end-begin)+len(repl) bytes long.
// begin == end inserts without replacing; an empty repl removes the range.
func Splice(buf []byte, begin, end int, repl []byte) []byte {
	if begin < 0 || end < begin || end > len(buf) {
		panic(fmt.Sprintf("keystore: splice range [%d, %d) out of bounds for %d bytes", begin, end, len(buf)))
	}
	old := len(buf)
	delta := len(repl) - (end - begin)
	switch {
	case delta < 0:
		copy(buf[begin:], repl)
		copy(buf[begin+len(repl):], buf[end:])
		buf = buf[:old+delta]
	case delta > 0:
		buf = append(buf, make([]byte, delta)...)
		copy(buf[end+delta:], buf[end:old])
		copy(buf[begin:], repl)
	default:
		copy(buf[begin:], repl)
	}
	return buf
}
