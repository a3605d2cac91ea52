package multi

import (
	"context"
	"errors"
	"testing"
)

// mockOutput records calls for test assertions.
type mockOutput struct {
	lines  []string
	closed bool
	err    error // if set, Write and Close return this error
}

func (m *mockOutput) Write(_ context.Context, lines ...string) error {
	m.lines = append(m.lines, lines...)
	return m.err
}

func (m *mockOutput) Close() error {
	m.closed = true
	return m.err
}

func TestFanOut(t *testing.T) {
	a, b := &mockOutput{}, &mockOutput{}
	m := New(a, b)

	if err := m.Write(context.Background(), "x", "y"); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	for i, o := range []*mockOutput{a, b} {
		if len(o.lines) != 2 || o.lines[0] != "x" || o.lines[1] != "y" {
			t.Errorf("output %d got %q", i, o.lines)
		}
	}
}

func TestFailingOutputDoesNotBlockOthers(t *testing.T) {
	bad := &mockOutput{err: errors.New("disk full")}
	good := &mockOutput{}
	m := New(bad, good)

	err := m.Write(context.Background(), "line")
	if err == nil || !errors.Is(err, bad.err) {
		t.Fatalf("expected joined disk full error, got %v", err)
	}
	if len(good.lines) != 1 {
		t.Fatalf("good output got %d lines, want 1", len(good.lines))
	}
}

func TestCloseAll(t *testing.T) {
	a := &mockOutput{err: errors.New("close failed")}
	b := &mockOutput{}
	if err := New(a, b).Close(); err == nil {
		t.Fatal("expected close error")
	}
	if !a.closed || !b.closed {
		t.Fatal("expected every output closed")
	}
}

func TestEmpty(t *testing.T) {
	m := New()
	if err := m.Write(context.Background(), "x"); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
}
