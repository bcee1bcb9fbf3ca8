package anomaly

// window is a fixed-capacity ring buffer of the most recent values.
type window struct {
	buf  []float64
	head int
	n    int

	// scratch holds the values in arrival order for the stat calls.
	scratch []float64
}

func newWindow(size int) *window {
	return &window{buf: make([]float64, size), scratch: make([]float64, 0, size)}
}

func (w *window) push(v float64) {
	w.buf[w.head] = v
	w.head = (w.head + 1) % len(w.buf)
	if w.n < len(w.buf) {
		w.n++
	}
}

// values returns the buffered values oldest first. The slice is reused by the
// next call.
func (w *window) values() []float64 {
	w.scratch = w.scratch[:0]
	start := (w.head - w.n + len(w.buf)) % len(w.buf)
	for i := 0; i < w.n; i++ {
		w.scratch = append(w.scratch, w.buf[(start+i)%len(w.buf)])
	}
	return w.scratch
}
