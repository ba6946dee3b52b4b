package rsbuild

import (
	"errors"
	"testing"
)

func TestBuildWithRetry_FirstAttemptSucceeds(t *testing.T) {
	var calls []int
	compile := func(jobs int) error {
		calls = append(calls, jobs)
		return nil
	}

	if err := buildWithRetry(compile, 4); err != nil {
		t.Fatalf("buildWithRetry failed: %v", err)
	}
	if len(calls) != 1 || calls[0] != 4 {
		t.Errorf("compile invocations = %v, want [4]", calls)
	}
}

func TestBuildWithRetry_RetriesOnceSerially(t *testing.T) {
	var calls []int
	compile := func(jobs int) error {
		calls = append(calls, jobs)
		if len(calls) == 1 {
			return errors.New("internal compiler error: out of memory")
		}
		return nil
	}

	if err := buildWithRetry(compile, 6); err != nil {
		t.Fatalf("buildWithRetry failed after successful retry: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("compile invoked %d times, want 2", len(calls))
	}
	if calls[0] != 6 {
		t.Errorf("first attempt used %d jobs, want 6", calls[0])
	}
	if calls[1] != 1 {
		t.Errorf("retry used %d jobs, want 1", calls[1])
	}
}

func TestBuildWithRetry_SecondFailureIsTerminal(t *testing.T) {
	var calls []int
	compile := func(jobs int) error {
		calls = append(calls, jobs)
		return errors.New("undefined reference to rs2_create_context")
	}

	err := buildWithRetry(compile, 4)
	if !errors.Is(err, errBuildFailed) {
		t.Fatalf("buildWithRetry = %v, want errBuildFailed", err)
	}
	// Exactly one retry, never more.
	if len(calls) != 2 {
		t.Errorf("compile invoked %d times, want 2", len(calls))
	}
}

func TestBuildWithRetry_SerialRetryEvenWhenAlreadySerial(t *testing.T) {
	// The retry drops to one job unconditionally, even if the first
	// attempt already ran serially.
	var calls []int
	compile := func(jobs int) error {
		calls = append(calls, jobs)
		return errors.New("no space left on device")
	}

	_ = buildWithRetry(compile, 1)
	if len(calls) != 2 || calls[0] != 1 || calls[1] != 1 {
		t.Errorf("compile invocations = %v, want [1 1]", calls)
	}
}
