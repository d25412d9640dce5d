package api

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// CleanupFunc deletes one remote resource.
type CleanupFunc func(ctx context.Context) error

// CleanupRegistry collects deletions and runs them in LIFO (Last-In-First-Out)
// order, so children registered after their parents are removed first.
type CleanupRegistry struct {
	mu       sync.Mutex
	cleanups []CleanupFunc
	logger   *log.Entry
}

// NewCleanupRegistry creates an empty registry logging through logger.
func NewCleanupRegistry(logger *log.Entry) *CleanupRegistry {
	return &CleanupRegistry{
		cleanups: make([]CleanupFunc, 0),
		logger:   logger,
	}
}

// Register adds a cleanup function to be called by RunAll.
func (r *CleanupRegistry) Register(fn CleanupFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cleanups = append(r.cleanups, fn)
}

// RunAll executes all cleanup functions in reverse order (LIFO). A failed
// cleanup is logged and the rest still run; cancelling ctx stops the run.
func (r *CleanupRegistry) RunAll(ctx context.Context) []error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error

	for i := len(r.cleanups) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if err := r.cleanups[i](ctx); err != nil {
			errs = append(errs, err)
			r.logger.WithError(err).WithField("remaining", i).Warn("cleanup failed")
		}
	}

	r.cleanups = nil

	return errs
}

// Count returns the number of registered cleanup functions.
func (r *CleanupRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.cleanups)
}

// EntityDeleter deletes entities by URI. *Client implements it.
type EntityDeleter interface {
	DeleteEntity(ctx context.Context, uri string) error
}

// RegisterEntityCleanup registers deletion of the entity at uri.
func (r *CleanupRegistry) RegisterEntityCleanup(client EntityDeleter, uri string) {
	r.Register(func(ctx context.Context) error {
		r.logger.WithField("uri", uri).Info("deleting entity")

		return client.DeleteEntity(ctx, uri)
	})
}
