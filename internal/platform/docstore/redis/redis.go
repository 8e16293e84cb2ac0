// Package redis is the Redis docstore backend. Each document is a hash
// {rev, body}; a sorted set of keys backs prefix listing and a counter issues
// revisions. Writes use WATCH/MULTI so a concurrent writer aborts the
// transaction instead of overwriting.
package redis

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/redis/go-redis/v9"

	"didgate/internal/platform/docstore"
	"didgate/pkg/platform/sentinel"
)

const (
	docPrefix = "didgate:doc:"
	indexKey  = "didgate:doc-index"
	seqKey    = "didgate:doc-seq"
)

// Store implements docstore.Store.
type Store struct {
	client redis.UniversalClient
}

// New creates a Redis docstore.
func New(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

func docKey(key string) string { return docPrefix + key }

func (s *Store) Get(ctx context.Context, key string) (*docstore.Document, error) {
	vals, err := s.client.HMGet(ctx, docKey(key), "rev", "body").Result()
	if err != nil {
		return nil, classify("get document", err)
	}
	return decode(key, vals)
}

func decode(key string, vals []any) (*docstore.Document, error) {
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return nil, sentinel.ErrNotFound
	}
	revStr, _ := vals[0].(string)
	body, _ := vals[1].(string)
	var rev uint64
	if _, err := fmt.Sscan(revStr, &rev); err != nil {
		return nil, fmt.Errorf("decode revision for %s: %w", key, err)
	}
	return &docstore.Document{Key: key, Revision: docstore.Revision(rev), Body: []byte(body)}, nil
}

func currentRevision(ctx context.Context, tx *redis.Tx, key string) (docstore.Revision, error) {
	rev, err := tx.HGet(ctx, docKey(key), "rev").Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return docstore.Revision(rev), nil
}

func (s *Store) Put(ctx context.Context, doc docstore.Document) (docstore.Revision, error) {
	var next docstore.Revision
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := currentRevision(ctx, tx, doc.Key)
		if err != nil {
			return err
		}
		if current != doc.Revision {
			return sentinel.ErrConflict
		}
		seq, err := tx.Incr(ctx, seqKey).Uint64()
		if err != nil {
			return err
		}
		next = docstore.Revision(seq)
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, docKey(doc.Key), "rev", uint64(next), "body", string(doc.Body))
			p.ZAdd(ctx, indexKey, redis.Z{Score: 0, Member: doc.Key})
			return nil
		})
		return err
	}, docKey(doc.Key))
	if err != nil {
		return 0, classify("put document", err)
	}
	return next, nil
}

func (s *Store) Remove(ctx context.Context, key string, rev docstore.Revision) error {
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := currentRevision(ctx, tx, key)
		if err != nil {
			return err
		}
		if current == 0 {
			return sentinel.ErrNotFound
		}
		if current != rev {
			return sentinel.ErrConflict
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Del(ctx, docKey(key))
			p.ZRem(ctx, indexKey, key)
			return nil
		})
		return err
	}, docKey(key))
	if err != nil {
		return classify("remove document", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]*docstore.Document, error) {
	lo, hi := "-", "+"
	if prefix != "" {
		lo, hi = "["+prefix, "["+prefix+"\xff"
	}
	keys, err := s.client.ZRangeByLex(ctx, indexKey, &redis.ZRangeBy{Min: lo, Max: hi}).Result()
	if err != nil {
		return nil, classify("list documents", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.SliceCmd, len(keys))
	_, err = s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, key := range keys {
			cmds[i] = p.HMGet(ctx, docKey(key), "rev", "body")
		}
		return nil
	})
	if err != nil {
		return nil, classify("list documents", err)
	}

	docs := make([]*docstore.Document, 0, len(keys))
	for i, key := range keys {
		doc, err := decode(key, cmds[i].Val())
		if errors.Is(err, sentinel.ErrNotFound) {
			// removed between the index read and the fetch
			continue
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func classify(op string, err error) error {
	if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrConflict) {
		return err
	}
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%s: %w", op, sentinel.ErrConflict)
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) || errors.Is(err, redis.ErrClosed) {
		return fmt.Errorf("%s: %w: %w", op, sentinel.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
