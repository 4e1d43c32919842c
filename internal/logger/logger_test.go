package logger

import (
	"testing"

	"github.com/viefmoon/bite-sub001/internal/config"
)

func TestNewFallsBackOnBadLevel(t *testing.T) {
	log, err := New(config.LogConfig{Level: "loud", Encoding: "json"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !log.Core().Enabled(0) {
		t.Fatalf("expected info level to be enabled")
	}
	if log.Core().Enabled(-1) {
		t.Fatalf("expected debug level to be disabled")
	}
}

func TestNewConsoleEncoding(t *testing.T) {
	log, err := New(config.LogConfig{Level: "debug", Encoding: "", Sampling: true})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !log.Core().Enabled(-1) {
		t.Fatalf("expected debug level to be enabled")
	}
}
