package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	base := errors.New("connection refused")
	e := New(ErrDockerConnect, "orchestrator.ping", base).WithResource("unix:///var/run/docker.sock")

	got := e.Error()
	if !strings.Contains(got, "ERR-DOCKER-001") {
		t.Errorf("missing code in %q", got)
	}
	if !strings.Contains(got, "unix:///var/run/docker.sock") {
		t.Errorf("missing resource in %q", got)
	}
	if !errors.Is(e, base) {
		t.Error("expected errors.Is to find wrapped cause")
	}
}

func TestUserMessageIncludesAdvice(t *testing.T) {
	e := Newf(ErrSetupConfig, "setup.check-config", "no .env file found").
		WithAdvice("Copy .env.example to .env and fill in credentials")

	msg := e.UserMessage()
	if !strings.Contains(msg, "Copy .env.example") {
		t.Errorf("advice missing from %q", msg)
	}
}

func TestIsCodeThroughWrapping(t *testing.T) {
	inner := New(ErrScanSSH, "scan.esxi", errors.New("auth failed"))
	outer := fmt.Errorf("scan-all: %w", inner)

	if !IsCode(outer, ErrScanSSH) {
		t.Error("IsCode should see through fmt.Errorf wrapping")
	}
	if IsCode(outer, ErrScanDocker) {
		t.Error("IsCode matched the wrong code")
	}
	if As(outer) == nil {
		t.Error("As should extract the structured error")
	}
	if As(errors.New("plain")) != nil {
		t.Error("As should return nil for unstructured errors")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, ErrUnknown, "noop") != nil {
		t.Error("Wrap(nil) must return nil")
	}
}
