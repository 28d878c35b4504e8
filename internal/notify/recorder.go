package notify

import "sync"

// Kind classifies a recorded toast.
type Kind string

const (
	KindError   Kind = "error"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
)

// Toast is one notification shown through a Recorder.
type Toast struct {
	Kind        Kind
	Title       string
	Description string
}

// Recorder is a Toaster that keeps every toast in order. The monitor view
// reads the latest entry for its status line.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
	onShow func(Toast)
}

// NewRecorder returns a Recorder that calls onShow (when non-nil) after each
// toast is recorded.
func NewRecorder(onShow func(Toast)) *Recorder {
	return &Recorder{onShow: onShow}
}

func (r *Recorder) Error(title, description string) error {
	r.add(Toast{Kind: KindError, Title: title, Description: description})
	return nil
}

func (r *Recorder) Success(message string) error {
	r.add(Toast{Kind: KindSuccess, Title: message})
	return nil
}

func (r *Recorder) Warning(message string) error {
	r.add(Toast{Kind: KindWarning, Title: message})
	return nil
}

// Toasts returns a copy of everything recorded so far.
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.toasts...)
}

// Last returns the most recent toast.
func (r *Recorder) Last() (Toast, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.toasts) == 0 {
		return Toast{}, false
	}
	return r.toasts[len(r.toasts)-1], true
}

func (r *Recorder) add(t Toast) {
	r.mu.Lock()
	r.toasts = append(r.toasts, t)
	onShow := r.onShow
	r.mu.Unlock()
	if onShow != nil {
		onShow(t)
	}
}
