package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/tajious/rollcall/internal/models"
)

type collectionPaths struct {
	list        string
	deleted     string
	create      string
	item        string
	restore     string
	forceDelete string
}

// Collection is the soft-deletable resource API for one record type.
type Collection[T any, P any] struct {
	c     *Client
	paths collectionPaths
	noun  string
}

func (c *Client) Users() *Collection[models.User, models.UserPayload] {
	return &Collection[models.User, models.UserPayload]{
		c:    c,
		noun: "user",
		paths: collectionPaths{
			list:        PathUsers,
			deleted:     PathDeletedUsers,
			create:      PathUsers,
			item:        PathUsers,
			restore:     PathRestoreUser,
			forceDelete: PathForceDeleteUser,
		},
	}
}

func (c *Client) Roles() *Collection[models.Role, models.RolePayload] {
	return &Collection[models.Role, models.RolePayload]{
		c:    c,
		noun: "role",
		paths: collectionPaths{
			list:        PathRoles,
			deleted:     PathDeletedRoles,
			create:      PathCreateRole,
			item:        PathRoles,
			restore:     PathRestoreRole,
			forceDelete: PathForceDeleteRole,
		},
	}
}

func (s *Collection[T, P]) FetchActive(ctx context.Context) ([]T, error) {
	return s.fetch(ctx, s.paths.list)
}

func (s *Collection[T, P]) FetchDeleted(ctx context.Context) ([]T, error) {
	return s.fetch(ctx, s.paths.deleted)
}

func (s *Collection[T, P]) Create(ctx context.Context, payload P) error {
	return s.c.do(ctx, call{
		method:   http.MethodPost,
		path:     s.paths.create,
		body:     payload,
		fallback: "Failed to create " + s.noun,
	})
}

func (s *Collection[T, P]) Update(ctx context.Context, id string, payload P) error {
	return s.c.do(ctx, call{
		method:   http.MethodPatch,
		path:     s.paths.item + "/" + url.PathEscape(id),
		body:     payload,
		fallback: "Failed to update " + s.noun,
	})
}

func (s *Collection[T, P]) SoftDelete(ctx context.Context, id string) error {
	return s.c.do(ctx, call{
		method:   http.MethodDelete,
		path:     s.paths.item + "/" + url.PathEscape(id),
		fallback: "Failed to delete " + s.noun,
	})
}

func (s *Collection[T, P]) Restore(ctx context.Context, id string) error {
	return s.c.do(ctx, call{
		method:   http.MethodPost,
		path:     s.paths.restore + "/" + url.PathEscape(id),
		fallback: "Failed to restore " + s.noun,
	})
}

func (s *Collection[T, P]) HardDelete(ctx context.Context, id string) error {
	return s.c.do(ctx, call{
		method:   http.MethodDelete,
		path:     s.paths.forceDelete + "/" + url.PathEscape(id),
		fallback: "Failed to permanently delete " + s.noun,
	})
}

func (s *Collection[T, P]) fetch(ctx context.Context, path string) ([]T, error) {
	var raw json.RawMessage
	if err := s.c.do(ctx, call{
		method:   http.MethodGet,
		path:     path,
		out:      &raw,
		fallback: "Failed to fetch " + s.noun + "s",
	}); err != nil {
		return nil, err
	}
	return decodeList[T](raw, "Failed to fetch "+s.noun+"s")
}

// decodeList accepts either a bare JSON array or an object wrapping the array
// in a data field.
func decodeList[T any](raw json.RawMessage, fallback string) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []T{}, nil
	}
	var items []T
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, &Error{Message: fallback}
		}
		return items, nil
	}
	var wrapped struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, &Error{Message: fallback}
	}
	if wrapped.Data == nil {
		return []T{}, nil
	}
	return wrapped.Data, nil
}
