// Package refresh reloads the catalog from its source and swaps the new
// snapshot into the index, on a cron schedule or on demand.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/agenthands/boqmatch/internal/core/catalog"
)

const DefaultTimeout = 2 * time.Minute

type Refresher struct {
	Source catalog.Source
	Index  *catalog.Index
	Logger *slog.Logger
	// Timeout bounds a scheduled reload. Manual reloads use the caller's
	// context as is.
	Timeout time.Duration

	mu   sync.Mutex
	cron *cron.Cron
}

func New(src catalog.Source, ix *catalog.Index, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		Source:  src,
		Index:   ix,
		Logger:  logger,
		Timeout: DefaultTimeout,
	}
}

// Refresh loads a fresh snapshot and installs it. When the load fails the
// current snapshot stays in place. Concurrent calls run one after another.
func (r *Refresher) Refresh(ctx context.Context) (*catalog.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	snap, err := catalog.Load(ctx, r.Source)
	if err != nil {
		r.Logger.Error("catalog refresh failed", "source", r.Source.Name(), "error", err)
		return nil, err
	}
	r.Index.Swap(snap)

	r.Logger.Info("catalog refreshed",
		"source", snap.Source,
		"version", snap.Version,
		"entries", snap.EntryCount(),
		"offers", snap.OfferCount(),
		"issues", len(snap.Issues),
		"duration", time.Since(start),
	)
	for _, issue := range snap.Issues {
		r.Logger.Warn("offer rejected", "offer_id", issue.RecordID, "reason", issue.Reason)
	}
	return snap, nil
}

// Start schedules Refresh with a standard five field cron expression. A run
// that is still going when the next one is due makes the next one skip.
func (r *Refresher) Start(schedule string) error {
	logger := cronLogger{r.Logger}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.Timeout)
		defer cancel()
		r.Refresh(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}

	r.mu.Lock()
	r.cron = c
	r.mu.Unlock()
	c.Start()
	r.Logger.Info("catalog refresh scheduled", "schedule", schedule)
	return nil
}

// Stop halts the schedule and waits for a running reload to finish or ctx
// to end.
func (r *Refresher) Stop(ctx context.Context) {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
}

type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
