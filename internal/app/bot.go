package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Adda-Baaj/tomato-bot/internal/config"
	"github.com/Adda-Baaj/tomato-bot/internal/domain"
	"github.com/Adda-Baaj/tomato-bot/internal/logger"
	"github.com/Adda-Baaj/tomato-bot/internal/publisher"
	"github.com/Adda-Baaj/tomato-bot/internal/selector"
	"github.com/Adda-Baaj/tomato-bot/internal/storage"
	"github.com/Adda-Baaj/tomato-bot/pkg/bluesky"
	"github.com/Adda-Baaj/tomato-bot/pkg/httpclient"
	"github.com/Adda-Baaj/tomato-bot/pkg/notifiers"
	"github.com/Adda-Baaj/tomato-bot/pkg/sources"
	"github.com/google/uuid"
)

const (
	blueskyTimeout  = 30 * time.Second
	downloadTimeout = 60 * time.Second
)

// Picker chooses the artwork to post.
type Picker interface {
	Pick(ctx context.Context, term string) (selector.Selection, error)
}

// ArtworkPublisher renders and posts an artwork.
type ArtworkPublisher interface {
	Caption(rec domain.ArtworkRecord) string
	Publish(ctx context.Context, rec domain.ArtworkRecord) (publisher.Result, error)
}

// EventNotifier forwards "posted" events downstream.
type EventNotifier interface {
	Notify(ctx context.Context, evt notifiers.Event) (int, error)
	Close() error
}

// Components are the collaborators of one bot run.
type Components struct {
	Selector  Picker
	Publisher ArtworkPublisher
	Store     storage.Store
	Notifier  EventNotifier
}

// Bot runs a single select, publish, record, notify pass.
type Bot struct {
	cfg   *config.Config
	deps  Components
	log   logger.Logger
	runID string
}

// NewBot builds a bot runtime from config files and environment.
func NewBot(ctx context.Context, cfg *config.Config, log logger.Logger) (*Bot, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	sourceReg, err := sources.LoadRegistry(cfg.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("load sources registry: %w", err)
	}
	rng := newRand(cfg.RandomSeed)
	catalog, err := sources.BuildCatalog(sources.DefaultBuilders(), sourceReg.Enabled(), sources.Deps{
		Key:  cfg.SourceKey,
		Rand: rng,
	})
	if err != nil {
		return nil, fmt.Errorf("build sources: %w", err)
	}
	log.InfoObj("sources registry loaded", "sources_meta", map[string]any{
		"count":       len(catalog.Candidates()),
		"eligible":    len(catalog.Eligible()),
		"descriptors": catalog.Descriptors(),
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.StoragePath, storage.Options{
		RedisAddr: cfg.RedisAddr,
		RedisKey:  cfg.RedisKey,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type": cfg.StorageType,
		"path": cfg.StoragePath,
	})

	notifierReg, err := notifiers.LoadRegistry(cfg.NotifiersFile)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load notifiers registry: %w", err)
	}
	enabled := notifierReg.Enabled()
	clients, err := notifiers.BuildAll(ctx, notifiers.DefaultRegistry(), enabled, log)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("build notifiers: %w", err)
	}
	summaries := make([]map[string]string, 0, len(enabled))
	for _, n := range enabled {
		summaries = append(summaries, map[string]string{"id": n.ID, "type": n.Type})
	}
	log.InfoObj("notifiers registry loaded", "notifiers_meta", map[string]any{
		"count":     len(summaries),
		"notifiers": summaries,
	})

	pub := publisher.New(
		bluesky.NewClient(cfg.BskyService, blueskyTimeout),
		httpclient.NewRestyClient(downloadTimeout),
		publisher.Options{
			Handle:      cfg.BskyHandle,
			AppPassword: cfg.BskyAppPassword,
			Caption:     publisher.Caption{Limit: cfg.CaptionLimit, Hashtags: cfg.Hashtags},
		},
	)

	return New(cfg, Components{
		Selector:  selector.New(catalog, store, rng),
		Publisher: pub,
		Store:     store,
		Notifier:  notifiers.NewFanout(clients),
	}, log), nil
}

// New assembles a bot from prebuilt components.
func New(cfg *config.Config, deps Components, log logger.Logger) *Bot {
	return &Bot{
		cfg:   cfg,
		deps:  deps,
		log:   logger.Ensure(log),
		runID: uuid.NewString(),
	}
}

// RunID identifies this run in logs and events.
func (b *Bot) RunID() string { return b.runID }

// Run performs one pass. Running out of candidates is a successful no-op; publish failures and
// a failed store write after posting are returned.
func (b *Bot) Run(ctx context.Context) error {
	if b == nil || b.cfg == nil || b.deps.Selector == nil || b.deps.Publisher == nil || b.deps.Store == nil {
		return fmt.Errorf("bot is not initialized")
	}
	defer b.close()

	start := time.Now()
	b.log.InfoObj("run started", "run_meta", map[string]any{
		"run_id":      b.runID,
		"search_term": b.cfg.SearchTerm,
		"dry_run":     b.cfg.DryRun,
	})

	sel, err := b.deps.Selector.Pick(ctx, b.cfg.SearchTerm)
	if errors.Is(err, domain.ErrExhausted) {
		b.log.InfoObj("no new artwork to post", "run_meta", map[string]any{
			"run_id": b.runID,
			"reason": err.Error(),
		})
		return nil
	}
	if err != nil {
		return fmt.Errorf("select artwork: %w", err)
	}

	if b.cfg.DryRun {
		b.log.InfoObj("dry run, post skipped", "dry_run", map[string]any{
			"run_id":     b.runID,
			"source_id":  sel.Source.ID,
			"artwork_id": sel.Record.ID,
			"image_url":  sel.Record.ImageURL,
			"caption":    b.deps.Publisher.Caption(sel.Record),
		})
		return nil
	}

	res, err := b.deps.Publisher.Publish(ctx, sel.Record)
	if err != nil {
		b.log.ErrorObj("publish failed", "publish_error", map[string]any{
			"run_id":     b.runID,
			"artwork_id": sel.Record.ID,
			"error":      err.Error(),
		})
		return err
	}

	if err := b.deps.Store.Add(sel.Record.ID); err != nil {
		b.log.ErrorObj("posted id not recorded", "store_error", map[string]any{
			"run_id":     b.runID,
			"artwork_id": sel.Record.ID,
			"post_uri":   res.URI,
			"error":      err.Error(),
		})
		return fmt.Errorf("record posted id %s: %w", sel.Record.ID, err)
	}

	b.notify(ctx, sel, res)

	b.log.InfoObj("run completed", "run_meta", map[string]any{
		"run_id":     b.runID,
		"source_id":  sel.Source.ID,
		"artwork_id": sel.Record.ID,
		"post_url":   res.URL,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

func (b *Bot) notify(ctx context.Context, sel selector.Selection, res publisher.Result) {
	if b.deps.Notifier == nil {
		return
	}
	evt := notifiers.NewEvent(sel.Source.ID, sel.Source.Name, sel.Record, res.URI, res.URL)
	evt.RunID = b.runID
	delivered, err := b.deps.Notifier.Notify(ctx, evt)
	if err != nil {
		b.log.WarnObj("notify failed", "notify_error", map[string]any{
			"run_id":    b.runID,
			"delivered": delivered,
			"error":     err.Error(),
		})
		return
	}
	if delivered > 0 {
		b.log.DebugObj("notifications delivered", "notify_meta", map[string]any{
			"run_id":    b.runID,
			"delivered": delivered,
		})
	}
}

// close releases the store and notifier connections, logging any errors encountered.
func (b *Bot) close() {
	if b.deps.Store != nil {
		if err := b.deps.Store.Close(); err != nil {
			b.log.ErrorObj("storage close failed", "error", err)
		}
	}
	if b.deps.Notifier != nil {
		if err := b.deps.Notifier.Close(); err != nil {
			b.log.WarnObj("notifier close failed", "error", err)
		}
	}
}

// newRand returns a generator seeded from seed, or randomly when seed is zero.
func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}
