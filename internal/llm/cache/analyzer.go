package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/receipt-parser/internal/llm"
)

// Analyzer serves repeated images from the store and delegates the rest.
// Only replies that parsed successfully are stored.
type Analyzer struct {
	next   llm.Analyzer
	store  *BoltStore
	model  string
	logger *slog.Logger
	now    func() time.Time
}

func NewAnalyzer(next llm.Analyzer, store *BoltStore, model string, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{next: next, store: store, model: model, logger: logger, now: time.Now}
}

func (a *Analyzer) Analyze(ctx context.Context, image []byte, mimeType string) (*llm.Analysis, error) {
	key := Key(a.model, image)

	entry, ok, err := a.store.Get(key)
	switch {
	case err != nil:
		a.logger.Warn("llm.cache.read_error", "key", key, "error", err)
	case ok:
		analysis, perr := llm.ParseAnalysis(entry.Reply, a.logger)
		if perr == nil {
			a.logger.Info("llm.cache.hit", "key", key, "stored_at", entry.StoredAt)
			return analysis, nil
		}
		a.logger.Warn("llm.cache.stale_entry", "key", key, "error", perr)
	}

	analysis, err := a.next.Analyze(ctx, image, mimeType)
	if err != nil {
		return nil, err
	}
	if err := a.store.Put(key, Record{Model: a.model, Reply: analysis.RawText, StoredAt: a.now().UTC()}); err != nil {
		a.logger.Warn("llm.cache.write_error", "key", key, "error", err)
	}
	return analysis, nil
}

// Wrap puts a bbolt-backed cache at path in front of next. An empty path disables
// caching and returns next unchanged. The returned func closes the store.
func Wrap(next llm.Analyzer, model, path string, logger *slog.Logger) (llm.Analyzer, func(), error) {
	if path == "" {
		return next, func() {}, nil
	}
	store, err := OpenBoltStore(path)
	if err != nil {
		return nil, nil, err
	}
	closer := func() {
		if err := store.Close(); err != nil && logger != nil {
			logger.Error("llm.cache.close_error", "error", err)
		}
	}
	return NewAnalyzer(next, store, model, logger), closer, nil
}
