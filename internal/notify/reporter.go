package notify

import (
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
)

// LogReporter writes reported errors to the standard logger.
type LogReporter struct{}

// Report implements Reporter.
func (LogReporter) Report(err error) {
	log.Printf("report: %v", err)
}

// SentryReporter forwards errors to Sentry through a dedicated hub.
type SentryReporter struct {
	hub *sentry.Hub
}

const sentryFlushTimeout = 2 * time.Second

// NewSentryReporter builds a reporter for dsn.
func NewSentryReporter(dsn, environment string) (*SentryReporter, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	})
	if err != nil {
		return nil, fmt.Errorf("init sentry client: %w", err)
	}
	return &SentryReporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// Report implements Reporter.
func (r *SentryReporter) Report(err error) {
	if r == nil || r.hub == nil || err == nil {
		return
	}
	r.hub.CaptureException(err)
}

// Flush waits for queued events to be delivered.
func (r *SentryReporter) Flush() bool {
	if r == nil || r.hub == nil {
		return true
	}
	return r.hub.Flush(sentryFlushTimeout)
}
