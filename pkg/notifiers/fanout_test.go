package notifiers

import (
	"context"
	"errors"
	"testing"
)

type stubNotifier struct {
	id     string
	typ    string
	err    error
	calls  int
	closed bool
}

func (s *stubNotifier) ID() string   { return s.id }
func (s *stubNotifier) Type() string { return s.typ }
func (s *stubNotifier) Notify(context.Context, Event) error {
	s.calls++
	return s.err
}
func (s *stubNotifier) Close() error {
	s.closed = true
	return nil
}

func TestFanoutNotifyAggregatesErrors(t *testing.T) {
	ok := &stubNotifier{id: "ok", typ: TypeHTTP}
	bad := &stubNotifier{id: "bad", typ: TypeHTTP, err: errors.New("failed")}
	fanout := NewFanout([]Notifier{ok, nil, bad})

	count, err := fanout.Notify(context.Background(), Event{})
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	if err == nil || ok.calls != 1 || bad.calls != 1 {
		t.Fatalf("expected every notifier called and an aggregated error")
	}
	if fanout.Size() != 2 {
		t.Fatalf("nil notifiers must be dropped")
	}
	if err := fanout.Close(); err != nil || !ok.closed || !bad.closed {
		t.Fatalf("expected notifiers closed")
	}
}

func TestNilFanoutIsNoop(t *testing.T) {
	var f *Fanout
	if n, err := f.Notify(context.Background(), Event{}); n != 0 || err != nil {
		t.Fatalf("expected noop, got %d %v", n, err)
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	notifiers, err := BuildAll(context.Background(), DefaultRegistry(), []Config{
		sanitizeConfig(Config{ID: "hook", Type: TypeHTTP, HTTP: &HTTPConfig{URL: "https://example.com"}}),
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(notifiers) != 1 || notifiers[0].Type() != TypeHTTP {
		t.Fatalf("unexpected notifiers %#v", notifiers)
	}
}

func TestBuildAllUnknownType(t *testing.T) {
	_, err := BuildAll(context.Background(), DefaultRegistry(), []Config{{ID: "x", Type: "carrier-pigeon"}}, nil)
	if err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestBuildAllClosesBuiltNotifiersOnFailure(t *testing.T) {
	first := &stubNotifier{id: "first", typ: "stub"}
	reg := NewRegistry(map[string]Builder{
		"stub": func(context.Context, Config, Logger) (Notifier, error) { return first, nil },
		"broken": func(context.Context, Config, Logger) (Notifier, error) {
			return nil, errors.New("dial failed")
		},
	})

	_, err := BuildAll(context.Background(), reg, []Config{
		{ID: "first", Type: "stub"},
		{ID: "second", Type: "broken"},
	}, nil)
	if err == nil {
		t.Fatalf("expected build error")
	}
	if !first.closed {
		t.Fatalf("expected the already built notifier to be closed")
	}
}
