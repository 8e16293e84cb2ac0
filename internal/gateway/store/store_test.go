package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"didgate/internal/gateway/models"
	"didgate/internal/platform/docstore"
	"didgate/pkg/platform/sentinel"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := New(docstore.NewMemory())
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := &models.AccessRequest{ID: "r1", Subject: "did:example:abc123", Organization: "OrgX", Attributes: []string{"name"}, Status: models.RequestPending, RequestedAt: at}
	require.NoError(t, s.Create(ctx, first))
	require.NoError(t, s.Create(ctx, &models.AccessRequest{ID: "r2", Subject: "did:example:abc123", Organization: "OrgXY", Attributes: []string{"age"}}))

	assert.ErrorIs(t, s.Create(ctx, first), sentinel.ErrConflict)

	got, err := s.ListByOrganization(ctx, "OrgX")
	require.NoError(t, err)
	require.Len(t, got, 1, "OrgX must not see OrgXY's requests")
	assert.Equal(t, first, got[0])
}
