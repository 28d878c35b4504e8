// Package notify funnels errors and user notifications through one place.
//
// A Notifier runs in one of two contexts. On the server it forwards errors to
// a Reporter and never toasts. In the monitor it shows toasts through a
// Toaster, falling back to the log when the toaster is absent or fails.
// Nothing here ever returns an error or lets a panic escape to the caller.
package notify

import (
	"errors"
	"fmt"
	"log"
	"sync"
)

// Context selects where notifications go.
type Context int

const (
	// Server forwards errors to the reporting sink only.
	Server Context = iota
	// Client shows toasts to the user.
	Client
)

func (c Context) String() string {
	switch c {
	case Server:
		return "server"
	case Client:
		return "client"
	default:
		return fmt.Sprintf("context(%d)", int(c))
	}
}

// Reporter receives errors detected on the server.
type Reporter interface {
	Report(err error)
}

// Toaster shows transient notifications to the user.
type Toaster interface {
	Error(title, description string) error
	Success(message string) error
	Warning(message string) error
}

// ErrNoToaster is returned internally when a client notifier has no toaster yet.
var ErrNoToaster = errors.New("toaster not initialized")

// Notifier is safe for concurrent use. A nil *Notifier only logs.
type Notifier struct {
	context  Context
	reporter Reporter

	mu      sync.RWMutex
	toaster Toaster
}

// NewServer builds a server-context notifier. A nil reporter falls back to
// LogReporter.
func NewServer(reporter Reporter) *Notifier {
	if reporter == nil {
		reporter = LogReporter{}
	}
	return &Notifier{context: Server, reporter: reporter}
}

// NewClient builds a client-context notifier. The toaster may be nil and
// attached later with SetToaster.
func NewClient(toaster Toaster) *Notifier {
	return &Notifier{context: Client, toaster: toaster}
}

// Context reports which context the notifier runs in.
func (n *Notifier) Context() Context {
	if n == nil {
		return Client
	}
	return n.context
}

// SetToaster attaches or replaces the toaster.
func (n *Notifier) SetToaster(t Toaster) {
	if n == nil {
		return
	}
	n.mu.Lock()
	n.toaster = t
	n.mu.Unlock()
}

// HandleError logs err and routes it to the reporter (server) or a toast
// (client). toastMessage, when set, becomes the toast title.
func (n *Notifier) HandleError(err error, toastMessage string) {
	if err == nil {
		return
	}
	log.Printf("error: %v", err)
	if n == nil {
		return
	}

	if n.context == Server {
		n.report(err)
		return
	}

	title := toastMessage
	if title == "" {
		title = err.Error()
	}
	n.toast(func(t Toaster) error {
		return t.Error(title, err.Error())
	}, "error toast: "+title)
}

// ToastSuccess shows a positive notification.
func (n *Notifier) ToastSuccess(message string) {
	if n == nil || n.context == Server {
		log.Printf("success: %s", message)
		return
	}
	n.toast(func(t Toaster) error {
		return t.Success(message)
	}, "success: "+message)
}

// ToastWarning shows a warning notification.
func (n *Notifier) ToastWarning(message string) {
	if n == nil || n.context == Server {
		log.Printf("warning: %s", message)
		return
	}
	n.toast(func(t Toaster) error {
		return t.Warning(message)
	}, "warning: "+message)
}

func (n *Notifier) report(err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("error reporter panicked: %v", r)
		}
	}()
	if n.reporter != nil {
		n.reporter.Report(err)
	}
}

// toast runs show against the current toaster and logs fallback when the
// toaster is missing, fails, or panics.
func (n *Notifier) toast(show func(Toaster) error, fallback string) {
	n.mu.RLock()
	t := n.toaster
	n.mu.RUnlock()

	if t == nil {
		log.Printf("%s (%v)", fallback, ErrNoToaster)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("%s (toast panicked: %v)", fallback, r)
		}
	}()
	if err := show(t); err != nil {
		log.Printf("%s (toast failed: %v)", fallback, err)
	}
}
