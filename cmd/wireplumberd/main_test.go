package main

import (
	"context"
	"errors"
	"testing"

	"wireplumber/dispatcher"
	"wireplumber/internal/werror"
)

func TestExitCodeLatchesFirstNonZero(t *testing.T) {
	ec := &exitCode{}
	ec.set(exitOK)
	if ec.code != exitOK {
		t.Fatalf("expected exitOK")
	}
	ec.set(exitSoftware)
	if ec.code != exitSoftware {
		t.Fatalf("expected exitSoftware to latch")
	}
	ec.set(exitOK)
	if ec.code != exitSoftware {
		t.Fatalf("a later OK must not clobber a latched error code, got %d", ec.code)
	}
}

func TestActivateNoBrokerIsNoop(t *testing.T) {
	d := dispatcher.New()
	defer d.Close()
	if err := activate(context.Background(), d, ""); err != nil {
		t.Fatalf("expected no-op activation without a broker, got %s", err)
	}
}

func TestMapActivationError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&werror.ServiceUnavailableError{Service: "bus"}, exitServiceUnavailable},
		{&werror.InvalidArgumentError{What: "profile"}, exitConfig},
		{&werror.HookError{Hook: "h", Err: errors.New("boom")}, exitSoftware},
	}
	for _, c := range cases {
		if got := mapActivationError(c.err); got != c.want {
			t.Fatalf("mapActivationError(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}
