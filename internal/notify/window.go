package notify

// window is a fixed-capacity ring of recently sent messages.
// Pushing into a full window overwrites the oldest entry.
type window struct {
	buf  []string
	next int
	size int
}

func newWindow(capacity int) *window {
	if capacity < 1 {
		capacity = 1
	}
	return &window{buf: make([]string, capacity)}
}

func (w *window) push(msg string) {
	w.buf[w.next] = msg
	w.next = (w.next + 1) % len(w.buf)
	if w.size < len(w.buf) {
		w.size++
	}
}

func (w *window) count(msg string) int {
	n := 0
	for _, m := range w.items() {
		if m == msg {
			n++
		}
	}
	return n
}

// items returns the contents oldest first.
func (w *window) items() []string {
	out := make([]string, 0, w.size)
	start := (w.next - w.size + len(w.buf)) % len(w.buf)
	for i := 0; i < w.size; i++ {
		out = append(out, w.buf[(start+i)%len(w.buf)])
	}
	return out
}
