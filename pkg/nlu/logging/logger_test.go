package logging

import (
	"errors"
	"testing"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "loud"
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNewDevelopmentLogger(t *testing.T) {
	l, err := NewDevelopmentLogger()
	if err != nil {
		t.Fatalf("NewDevelopmentLogger: %v", err)
	}
	l.WithField("component", "tokenizer").
		WithFields(map[string]interface{}{"step": 1}).
		WithError(errors.New("boom")).
		Debugw("derived logger works")
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	l := Nop()
	if OrNop(l) != l {
		t.Error("OrNop should return the given logger")
	}
}
