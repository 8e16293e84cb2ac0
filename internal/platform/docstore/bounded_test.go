package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"didgate/pkg/platform/sentinel"
)

// stallingStore blocks until the caller's deadline fires.
type stallingStore struct{ MemoryStore }

func (s *stallingStore) Get(ctx context.Context, _ string) (*Document, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type failingStore struct {
	MemoryStore
	err error
}

func (s *failingStore) Put(context.Context, Document) (Revision, error) { return 0, s.err }

func TestBounded_TimeoutBecomesUnavailable(t *testing.T) {
	b := NewBounded(&stallingStore{}, "test", WithTimeout(10*time.Millisecond))

	start := time.Now()
	_, err := b.Get(context.Background(), "grant/a")

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	assert.Less(t, time.Since(start), time.Second)
}

func TestBounded_PassesSentinelsThrough(t *testing.T) {
	b := NewBounded(&failingStore{err: sentinel.ErrConflict}, "test")

	_, err := b.Put(context.Background(), Document{Key: "grant/a"})

	assert.ErrorIs(t, err, sentinel.ErrConflict)
	assert.NotErrorIs(t, err, sentinel.ErrUnavailable)
}

func TestBounded_LeavesOtherErrorsAlone(t *testing.T) {
	boom := errors.New("boom")
	b := NewBounded(&failingStore{err: boom}, "test")

	_, err := b.Put(context.Background(), Document{Key: "grant/a"})

	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, sentinel.ErrUnavailable)
}

func TestJSONHelpers(t *testing.T) {
	type grant struct {
		Attributes []string `json:"attributes"`
	}
	ctx := context.Background()
	s := NewMemory()

	rev, err := PutJSON(ctx, s, "grant/a", 0, grant{Attributes: []string{"name"}})
	require.NoError(t, err)

	got, gotRev, err := GetJSON[grant](ctx, s, "grant/a")
	require.NoError(t, err)
	assert.Equal(t, rev, gotRev)
	assert.Equal(t, []string{"name"}, got.Attributes)

	all, err := ListJSON[grant](ctx, s, "grant/")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
