//go:build integration

package redis_test

import (
	"context"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"didgate/internal/platform/docstore"
	"didgate/internal/platform/docstore/docstoretest"
	"didgate/internal/platform/docstore/redis"
	"didgate/pkg/platform/sentinel"
	"didgate/pkg/testutil"
	"didgate/pkg/testutil/containers"
)

func TestRedisStoreContract(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.GetManager().GetRedis(t)

	suite.Run(t, &docstoretest.ContractSuite{
		New: func() docstore.Store {
			if err := rc.FlushAll(context.Background()); err != nil {
				t.Fatalf("flush redis: %v", err)
			}
			return redis.New(rc.Client)
		},
	})
}

func TestRedisStore_ConcurrentReplace(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.GetManager().GetRedis(t)
	ctx := context.Background()
	require.NoError(t, rc.FlushAll(ctx))
	store := redis.New(rc.Client)

	rev, err := store.Put(ctx, docstore.Document{Key: "did/did:example:ana", Body: []byte(`{}`)})
	require.NoError(t, err)

	res := testutil.RunConcurrent(16, func(int) error {
		_, err := store.Put(ctx, docstore.Document{Key: "did/did:example:ana", Revision: rev, Body: []byte(`{"v":1}`)})
		return err
	})

	assert.Equal(t, int32(1), res.Successes)
	assert.Equal(t, int32(15), res.Conflicts)
}

func TestRedisStore_ClosedClientIsUnavailable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.GetManager().GetRedis(t)
	client := goredisClone(t, rc.URL)
	require.NoError(t, client.Close())

	_, err := redis.New(client).Get(context.Background(), "did/x")

	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
}

func goredisClone(t *testing.T, url string) *goredis.Client {
	t.Helper()
	opts, err := goredis.ParseURL(url)
	require.NoError(t, err)
	return goredis.NewClient(opts)
}
