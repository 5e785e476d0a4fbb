package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/iac-studio/blueprint/internal/project"
	appErr "github.com/iac-studio/blueprint/pkg/errors"
)

const maxTxRetries = 3

type redisProjectStore struct {
	rdb redis.UniversalClient
	key string
}

// NewRedisProjectStore keeps every project in one JSON array under key, the
// layout browser clients use for local storage.
func NewRedisProjectStore(rdb redis.UniversalClient, key string) ProjectStore {
	return &redisProjectStore{rdb: rdb, key: key}
}

var _ ProjectStore = (*redisProjectStore)(nil)

func (s *redisProjectStore) Load(ctx context.Context, id string) (*project.Project, error) {
	all, err := s.read(ctx, s.rdb)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, appErr.Newf(appErr.CodeNotFound, "project %s not found", id)
}

func (s *redisProjectStore) List(ctx context.Context) ([]project.Project, error) {
	return s.read(ctx, s.rdb)
}

func (s *redisProjectStore) Save(ctx context.Context, p *project.Project) error {
	return s.update(ctx, func(all []project.Project) ([]project.Project, error) {
		for i := range all {
			if all[i].ID == p.ID {
				all[i] = *p
				return all, nil
			}
		}
		return append(all, *p), nil
	})
}

func (s *redisProjectStore) Delete(ctx context.Context, id string) error {
	return s.update(ctx, func(all []project.Project) ([]project.Project, error) {
		for i := range all {
			if all[i].ID == id {
				return append(all[:i], all[i+1:]...), nil
			}
		}
		return nil, appErr.Newf(appErr.CodeNotFound, "project %s not found", id)
	})
}

// update runs a read-modify-write of the blob under WATCH, retrying when
// another writer got in between.
func (s *redisProjectStore) update(ctx context.Context, fn func([]project.Project) ([]project.Project, error)) error {
	txf := func(tx *redis.Tx) error {
		all, err := s.read(ctx, tx)
		if err != nil {
			return err
		}
		next, err := fn(all)
		if err != nil {
			return err
		}
		if next == nil {
			next = []project.Project{}
		}
		blob, err := json.Marshal(next)
		if err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "encode projects failed")
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, blob, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, s.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		var ae *appErr.AppError
		if err != nil && !errors.As(err, &ae) {
			return redisError(err, "write projects failed")
		}
		return err
	}
	return appErr.New(appErr.CodeConflict, "projects were modified concurrently, retry the request")
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *redisProjectStore) read(ctx context.Context, c getter) ([]project.Project, error) {
	blob, err := c.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []project.Project{}, nil
	}
	if err != nil {
		return nil, redisError(err, "read projects failed")
	}
	var all []project.Project
	if err := json.Unmarshal(blob, &all); err != nil {
		return nil, appErr.Wrap(err, appErr.CodeUnavailable, "stored projects are unreadable")
	}
	return all, nil
}

func redisError(err error, message string) error {
	if isUnavailable(err) || errors.Is(err, redis.ErrClosed) {
		return appErr.Wrap(err, appErr.CodeUnavailable, message+": storage unavailable")
	}
	return appErr.Wrap(err, appErr.CodeInternal, message)
}
