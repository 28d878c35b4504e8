package metrics

import (
	"errors"
	"strings"
	"testing"
)

func TestPromRegistry_IncrementAndExport(t *testing.T) {
	r, err := NewDefault()
	if err != nil {
		t.Fatalf("NewDefault returned error: %v", err)
	}
	for _, user := range []string{"alice", "alice", "bob"} {
		if err := r.Increment(UserVisits, user); err != nil {
			t.Fatalf("Increment(%q) returned error: %v", user, err)
		}
	}

	var out strings.Builder
	if err := r.ExportText(&out); err != nil {
		t.Fatalf("ExportText returned error: %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"# TYPE cueweb_user_visits_total counter",
		`cueweb_user_visits_total{username="alice"} 2`,
		`cueweb_user_visits_total{username="bob"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("export = %q, want it to contain %q", text, want)
		}
	}
}

func TestPromRegistry_Errors(t *testing.T) {
	r := NewPromRegistry()
	if err := r.Increment("nope"); !errors.Is(err, ErrUnknownCounter) {
		t.Fatalf("Increment(unknown) error = %v, want ErrUnknownCounter", err)
	}
	if err := r.RegisterCounter("c_total", "c", "a"); err != nil {
		t.Fatalf("RegisterCounter returned error: %v", err)
	}
	if err := r.RegisterCounter("c_total", "c", "a"); err != nil {
		t.Fatalf("second RegisterCounter returned error: %v", err)
	}
	if err := r.Increment("c_total", "x", "y"); err == nil {
		t.Fatalf("Increment with wrong label count returned nil error")
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, _ := NewDefault()
	b, _ := NewDefault()
	_ = a.Increment(UserVisits, "alice")

	var out strings.Builder
	if err := b.ExportText(&out); err != nil {
		t.Fatalf("ExportText returned error: %v", err)
	}
	if strings.Contains(out.String(), "alice") {
		t.Fatalf("registry b saw registry a's counter: %q", out.String())
	}
}
