package app

import (
	"context"
	"errors"
	"testing"

	"github.com/Adda-Baaj/tomato-bot/internal/config"
	"github.com/Adda-Baaj/tomato-bot/internal/domain"
	"github.com/Adda-Baaj/tomato-bot/internal/publisher"
	"github.com/Adda-Baaj/tomato-bot/internal/selector"
	"github.com/Adda-Baaj/tomato-bot/pkg/notifiers"
	"github.com/Adda-Baaj/tomato-bot/pkg/sources"
)

type fakePicker struct {
	sel selector.Selection
	err error
}

func (f fakePicker) Pick(context.Context, string) (selector.Selection, error) { return f.sel, f.err }

type fakePublisher struct {
	err       error
	published []string
}

func (f *fakePublisher) Caption(rec domain.ArtworkRecord) string { return rec.Title }

func (f *fakePublisher) Publish(_ context.Context, rec domain.ArtworkRecord) (publisher.Result, error) {
	if f.err != nil {
		return publisher.Result{}, f.err
	}
	f.published = append(f.published, rec.ID)
	return publisher.Result{URI: "at://did/app.bsky.feed.post/1", URL: "https://bsky.app/profile/x/post/1"}, nil
}

type fakeStore struct {
	ids    []string
	addErr error
	closed bool
}

func (f *fakeStore) Close() error                  { f.closed = true; return nil }
func (f *fakeStore) Contains(string) (bool, error) { return false, nil }
func (f *fakeStore) Add(id string) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.ids = append(f.ids, id)
	return nil
}

type fakeNotifier struct {
	events []notifiers.Event
	err    error
}

func (f *fakeNotifier) Notify(_ context.Context, evt notifiers.Event) (int, error) {
	f.events = append(f.events, evt)
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}
func (f *fakeNotifier) Close() error { return nil }

func selection() selector.Selection {
	return selector.Selection{
		Source: sources.Descriptor{ID: "cma", Name: "The Cleveland Museum of Art"},
		Record: domain.ArtworkRecord{ID: "cma:7", Title: "Tomatoes", ImageURL: "https://img/7.jpg", License: domain.LicenseCC0},
	}
}

func testConfig() *config.Config {
	return &config.Config{SearchTerm: "tomato", CaptionLimit: 300}
}

func TestRunPublishesRecordsAndNotifies(t *testing.T) {
	pub := &fakePublisher{}
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	bot := New(testConfig(), Components{Selector: fakePicker{sel: selection()}, Publisher: pub, Store: store, Notifier: notifier}, nil)

	if err := bot.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(pub.published) != 1 || len(store.ids) != 1 || store.ids[0] != "cma:7" {
		t.Fatalf("expected one publish and one record, got %v %v", pub.published, store.ids)
	}
	if len(notifier.events) != 1 {
		t.Fatalf("expected one event, got %d", len(notifier.events))
	}
	evt := notifier.events[0]
	if evt.SourceID != "cma" || evt.PostURI == "" || evt.RunID != bot.RunID() {
		t.Fatalf("unexpected event %#v", evt)
	}
	if !store.closed {
		t.Fatalf("store must be closed after run")
	}
}

func TestRunExhaustedIsSuccess(t *testing.T) {
	pub := &fakePublisher{}
	store := &fakeStore{}
	bot := New(testConfig(), Components{Selector: fakePicker{err: domain.ErrExhausted}, Publisher: pub, Store: store}, nil)

	if err := bot.Run(context.Background()); err != nil {
		t.Fatalf("expected nil error on exhaustion, got %v", err)
	}
	if len(pub.published) != 0 || len(store.ids) != 0 {
		t.Fatalf("exhausted run must not publish or record")
	}
}

func TestRunPublishFailureLeavesStoreUnchanged(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	pubErr := domain.PublishFailure("upload image", errors.New("503"))
	bot := New(testConfig(), Components{Selector: fakePicker{sel: selection()}, Publisher: &fakePublisher{err: pubErr}, Store: store, Notifier: notifier}, nil)

	err := bot.Run(context.Background())
	if !errors.Is(err, domain.ErrPublish) {
		t.Fatalf("expected ErrPublish, got %v", err)
	}
	if len(store.ids) != 0 || len(notifier.events) != 0 {
		t.Fatalf("failed publish must not record or notify")
	}
}

func TestRunStoreFailureAfterPostIsReturned(t *testing.T) {
	store := &fakeStore{addErr: errors.New("read-only filesystem")}
	pub := &fakePublisher{}
	bot := New(testConfig(), Components{Selector: fakePicker{sel: selection()}, Publisher: pub, Store: store}, nil)

	if err := bot.Run(context.Background()); err == nil {
		t.Fatalf("expected store error")
	}
	if len(pub.published) != 1 {
		t.Fatalf("post should have been made before the store write")
	}
}

func TestRunNotifyFailureIsNotFatal(t *testing.T) {
	store := &fakeStore{}
	bot := New(testConfig(), Components{
		Selector:  fakePicker{sel: selection()},
		Publisher: &fakePublisher{},
		Store:     store,
		Notifier:  &fakeNotifier{err: errors.New("queue down")},
	}, nil)

	if err := bot.Run(context.Background()); err != nil {
		t.Fatalf("notify failures must not fail the run: %v", err)
	}
	if len(store.ids) != 1 {
		t.Fatalf("expected id recorded")
	}
}

func TestRunDryRunSkipsPostAndRecord(t *testing.T) {
	cfg := testConfig()
	cfg.DryRun = true
	pub := &fakePublisher{}
	store := &fakeStore{}
	bot := New(cfg, Components{Selector: fakePicker{sel: selection()}, Publisher: pub, Store: store}, nil)

	if err := bot.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(pub.published) != 0 || len(store.ids) != 0 {
		t.Fatalf("dry run must not publish or record")
	}
}

func TestRunSelectorErrorIsReturned(t *testing.T) {
	bot := New(testConfig(), Components{Selector: fakePicker{err: selector.ErrStoreLookup}, Publisher: &fakePublisher{}, Store: &fakeStore{}}, nil)
	if err := bot.Run(context.Background()); !errors.Is(err, selector.ErrStoreLookup) {
		t.Fatalf("expected store lookup error, got %v", err)
	}
}

func TestNewRandIsDeterministicForSeed(t *testing.T) {
	a, b := newRand(42), newRand(42)
	for i := 0; i < 5; i++ {
		if a.IntN(1000) != b.IntN(1000) {
			t.Fatalf("seeded generators diverged")
		}
	}
}
