package jobqueue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmission(t *testing.T) {
	_, rdb := newTestRedis(t)
	admission := NewAdmission(rdb, testLogger())
	ctx := context.Background()

	forbidden, err := admission.Forbidden(ctx, "worker-a")
	require.NoError(t, err)
	assert.False(t, forbidden)

	require.NoError(t, admission.Forbid(ctx, "worker-a"))

	forbidden, err = admission.Forbidden(ctx, "worker-a")
	require.NoError(t, err)
	assert.True(t, forbidden)

	// Other identities are unaffected
	forbidden, err = admission.Forbidden(ctx, "worker-b")
	require.NoError(t, err)
	assert.False(t, forbidden)

	require.NoError(t, admission.Permit(ctx, "worker-a"))

	forbidden, err = admission.Forbidden(ctx, "worker-a")
	require.NoError(t, err)
	assert.False(t, forbidden)
}
