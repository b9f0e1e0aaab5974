// Package inflight collapses repeated triggers of the same action while an
// earlier trigger is still running. The duplicate waits for and shares the
// first call's outcome instead of issuing its own request.
//
// Two triggers count as the same action only when their keys match, so keys
// must carry the action's input. Key builds one from an action name and the
// values it was invoked with.
package inflight

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/singleflight"
)

type Group struct {
	g singleflight.Group
}

// Key joins action with a digest of input. Triggers with different input
// never share a run.
func Key(action string, input ...any) string {
	if len(input) == 0 {
		return action
	}
	raw, err := json.Marshal(input)
	if err != nil {
		raw = []byte(fmt.Sprintf("%#v", input))
	}
	sum := sha256.Sum256(raw)
	return action + ":" + hex.EncodeToString(sum[:8])
}

// Do runs fn under key unless a call with the same key is already running.
// shared reports whether the result came from another caller's run.
//
// fn receives a context detached from any single caller's cancellation. Each
// caller stops waiting when its own ctx is done; the run itself carries on
// for whoever else is waiting on it.
func (g *Group) Do(ctx context.Context, key string, fn func(context.Context) error) (shared bool, err error) {
	_, shared, err = do(ctx, g, key, func(run context.Context) (interface{}, error) {
		return nil, fn(run)
	})
	return shared, err
}

// Value is Do for actions that produce a result.
func Value[T any](ctx context.Context, g *Group, key string, fn func(context.Context) (T, error)) (T, error) {
	v, _, err := do(ctx, g, key, func(run context.Context) (interface{}, error) {
		return fn(run)
	})
	out, _ := v.(T)
	return out, err
}

func do(ctx context.Context, g *Group, key string, fn func(context.Context) (interface{}, error)) (interface{}, bool, error) {
	run := context.WithoutCancel(ctx)
	ch := g.g.DoChan(key, func() (interface{}, error) {
		return fn(run)
	})
	select {
	case res := <-ch:
		return res.Val, res.Shared, res.Err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}
