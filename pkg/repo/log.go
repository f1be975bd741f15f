package repo

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/odvcencio/lut/pkg/object"
	"go.uber.org/zap"
)

// ErrHistoryCycle is returned when a parent chain leads back to a commit
// that was already visited.
var ErrHistoryCycle = errors.New("commit history revisits a commit")

// LogEntry is one commit visited by a history walk.
type LogEntry struct {
	Hash   object.Hash
	Commit *object.CommitObj
}

// HistoryOptions bounds a history walk. MaxDepth of zero means unbounded.
type HistoryOptions struct {
	MaxDepth int
}

// History walks the parent chain starting at start, newest first. Each
// commit is loaded only when the consumer asks for it. The first error
// (missing or corrupt object, malformed commit, revisited hash, or context
// cancellation) is yielded once and ends the walk. An empty start hash
// yields nothing.
func (r *Repo) History(ctx context.Context, start object.Hash, opts HistoryOptions) iter.Seq2[LogEntry, error] {
	read := func(h object.Hash) (*object.CommitObj, error) {
		return object.ReadCommit(r.Store, h)
	}
	return walkHistory(ctx, read, start, opts, r.logger)
}

// Log collects History into a slice.
func (r *Repo) Log(ctx context.Context, start object.Hash, opts HistoryOptions) ([]LogEntry, error) {
	var entries []LogEntry
	for entry, err := range r.History(ctx, start, opts) {
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func walkHistory(
	ctx context.Context,
	read func(object.Hash) (*object.CommitObj, error),
	start object.Hash,
	opts HistoryOptions,
	logger *zap.Logger,
) iter.Seq2[LogEntry, error] {
	return func(yield func(LogEntry, error) bool) {
		visited := make(map[object.Hash]struct{})
		current := start
		for depth := 0; current != ""; depth++ {
			if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
				logger.Debug("history walk reached depth bound", zap.Int("max_depth", opts.MaxDepth))
				return
			}
			if err := ctx.Err(); err != nil {
				yield(LogEntry{}, fmt.Errorf("log: %w", err))
				return
			}
			if _, ok := visited[current]; ok {
				yield(LogEntry{}, fmt.Errorf("log: %w: %s", ErrHistoryCycle, current))
				return
			}
			visited[current] = struct{}{}

			c, err := read(current)
			if err != nil {
				yield(LogEntry{}, fmt.Errorf("log: read commit %s: %w", current, err))
				return
			}
			logger.Debug("visited commit", zap.String("hash", string(current)), zap.Int("depth", depth))
			if !yield(LogEntry{Hash: current, Commit: c}, nil) {
				return
			}
			current = c.Parent
		}
	}
}
