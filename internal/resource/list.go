// Package resource implements the list screen shared by every soft-deletable
// record type: fetch active or deleted rows, filter them locally, and run
// mutations that are each followed by a full refetch.
package resource

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tajious/rollcall/internal/inflight"
	"github.com/tajious/rollcall/internal/validation"
)

// Record is a row that can produce its own full-record payload with the
// status flipped.
type Record[P any] interface {
	GetID() string
	DisplayName() string
	IsDeleted() bool
	ToggledPayload() P
}

type Service[T any, P any] interface {
	FetchActive(ctx context.Context) ([]T, error)
	FetchDeleted(ctx context.Context) ([]T, error)
	Create(ctx context.Context, payload P) error
	Update(ctx context.Context, id string, payload P) error
	SoftDelete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	HardDelete(ctx context.Context, id string) error
}

type List[T Record[P], P any] struct {
	svc   Service[T, P]
	msgs  Messages
	log   zerolog.Logger
	guard inflight.Group

	mu          sync.RWMutex
	rows        []T
	query       string
	showDeleted bool
}

type Option func(*options)

type options struct {
	log zerolog.Logger
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

func NewList[T Record[P], P any](svc Service[T, P], msgs Messages, opts ...Option) *List[T, P] {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &List[T, P]{
		svc:  svc,
		msgs: msgs,
		log:  o.log,
	}
}

// Refresh replaces the rows with the current contents of whichever endpoint
// the deleted toggle selects.
func (l *List[T, P]) Refresh(ctx context.Context) error {
	deleted := l.ShowDeleted()
	key := "refresh:active"
	if deleted {
		key = "refresh:deleted"
	}
	rows, err := inflight.Value(ctx, &l.guard, key, func(ctx context.Context) ([]T, error) {
		if deleted {
			return l.svc.FetchDeleted(ctx)
		}
		return l.svc.FetchActive(ctx)
	})
	if err != nil {
		return &ActionError{Message: l.msgs.Fetch, Err: err}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.showDeleted != deleted {
		// The toggle moved while this fetch was in flight; its result belongs
		// to the other view.
		return nil
	}
	l.rows = append([]T(nil), rows...)
	return nil
}

func (l *List[T, P]) ShowDeleted() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.showDeleted
}

// SetShowDeleted switches the fetch source and reloads from it. The previous
// view's rows are discarded.
func (l *List[T, P]) SetShowDeleted(ctx context.Context, on bool) error {
	l.mu.Lock()
	l.showDeleted = on
	l.rows = nil
	l.mu.Unlock()
	return l.Refresh(ctx)
}

func (l *List[T, P]) Filter(query string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.query = query
}

// Rows is everything from the last fetch, unfiltered.
func (l *List[T, P]) Rows() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]T(nil), l.rows...)
}

// Visible applies the case-insensitive name filter to the last fetch.
func (l *List[T, P]) Visible() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()

	q := strings.ToLower(l.query)
	out := make([]T, 0, len(l.rows))
	for _, r := range l.rows {
		if strings.Contains(strings.ToLower(r.DisplayName()), q) {
			out = append(out, r)
		}
	}
	return out
}

// Find looks a row up by id in the last fetch.
func (l *List[T, P]) Find(id string) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, r := range l.rows {
		if r.GetID() == id {
			return r, true
		}
	}
	var zero T
	return zero, false
}

// Save creates when id is empty and otherwise overwrites the whole record.
// The payload shape is checked before anything is sent.
func (l *List[T, P]) Save(ctx context.Context, id string, payload P) error {
	if err := validation.Check(payload); err != nil {
		return err
	}
	return l.mutate(ctx, inflight.Key("save:"+id, payload), l.msgs.Save, func(ctx context.Context) error {
		if id == "" {
			return l.svc.Create(ctx, payload)
		}
		return l.svc.Update(ctx, id, payload)
	})
}

// ToggleStatus submits the row's full payload with its status negated. Fields
// changed on the server since the last fetch are overwritten.
func (l *List[T, P]) ToggleStatus(ctx context.Context, row T) error {
	id := row.GetID()
	return l.mutate(ctx, "toggle:"+id, l.msgs.Toggle, func(ctx context.Context) error {
		return l.svc.Update(ctx, id, row.ToggledPayload())
	})
}

func (l *List[T, P]) SoftDelete(ctx context.Context, row T) error {
	id := row.GetID()
	return l.mutate(ctx, "delete:"+id, l.msgs.Delete, func(ctx context.Context) error {
		return l.svc.SoftDelete(ctx, id)
	})
}

func (l *List[T, P]) Restore(ctx context.Context, row T) error {
	id := row.GetID()
	return l.mutate(ctx, "restore:"+id, l.msgs.Restore, func(ctx context.Context) error {
		return l.svc.Restore(ctx, id)
	})
}

func (l *List[T, P]) HardDelete(ctx context.Context, row T) error {
	id := row.GetID()
	return l.mutate(ctx, "purge:"+id, l.msgs.HardDelete, func(ctx context.Context) error {
		return l.svc.HardDelete(ctx, id)
	})
}

func (l *List[T, P]) mutate(ctx context.Context, key, failure string, fn func(context.Context) error) error {
	shared, err := l.guard.Do(ctx, key, fn)
	if shared {
		l.log.Debug().Str("action", key).Msg("joined in-flight action")
	}
	if err != nil {
		l.log.Warn().Err(err).Str("action", key).Msg(failure)
		return &ActionError{Message: failure, Err: err}
	}
	return l.Refresh(ctx)
}
