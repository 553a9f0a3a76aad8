package mq

import (
	"context"
	"errors"
	"testing"
)

type recordingPublisher struct {
	subjects []string
	err      error
	closed   bool
}

func (r *recordingPublisher) Publish(_ context.Context, subject string, _ []byte) error {
	r.subjects = append(r.subjects, subject)
	return r.err
}

func (r *recordingPublisher) Close() { r.closed = true }

func TestFanoutDeliversToEveryPublisher(t *testing.T) {
	boom := errors.New("boom")
	failing := &recordingPublisher{err: boom}
	ok := &recordingPublisher{}
	pub := Fanout(failing, nil, ok)

	err := pub.Publish(context.Background(), "hero.saved", []byte(`{}`))
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error to wrap boom, got %v", err)
	}
	if len(ok.subjects) != 1 || ok.subjects[0] != "hero.saved" {
		t.Fatalf("expected second publisher to receive hero.saved, got %v", ok.subjects)
	}

	pub.Close()
	if !failing.closed || !ok.closed {
		t.Fatal("expected Close to reach every publisher")
	}
}

func TestFanoutEmpty(t *testing.T) {
	if err := Fanout().Publish(context.Background(), "hero.saved", nil); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestNoopPublisher(t *testing.T) {
	p := NewNoopPublisher()
	if err := p.Publish(context.Background(), "x", nil); err != nil {
		t.Fatalf("noop publish err: %v", err)
	}
	p.Close()
}
