package local

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/crowelm/crowelm/pkg/common/code"
	"github.com/crowelm/crowelm/pkg/core/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastReachesHandler(t *testing.T) {
	ctx := context.Background()
	center := New()

	var got notify.SendMsg
	require.NoError(t, center.Registry(ctx, notify.CacheUpdate, func(_ context.Context, msg string) error {
		return json.Unmarshal([]byte(msg), &got)
	}))

	err := center.Broadcast(ctx, &notify.SendMsg{Channel: notify.CacheUpdate, Key: "target:egfr", Status: "fresh"})
	require.NoError(t, err)
	assert.Equal(t, "target:egfr", got.Key)
	assert.Equal(t, "fresh", got.Status)
	assert.False(t, got.UUID.IsNil())
	assert.NotZero(t, got.Timestamp)
}

func TestRegistryTwiceFails(t *testing.T) {
	ctx := context.Background()
	center := New()
	noop := func(context.Context, string) error { return nil }

	require.NoError(t, center.Registry(ctx, notify.SyncDone, noop))
	assert.ErrorIs(t, center.Registry(ctx, notify.SyncDone, noop), code.NotifyActionAlreadyRegistryErr)
}

func TestBroadcastWithoutHandler(t *testing.T) {
	assert.NoError(t, New().Broadcast(context.Background(), &notify.SendMsg{Channel: notify.Connectivity}))
}

func TestHandlerPanicIsReported(t *testing.T) {
	ctx := context.Background()
	center := New()
	require.NoError(t, center.Registry(ctx, notify.SyncDone, func(context.Context, string) error { panic("boom") }))

	err := center.Broadcast(ctx, &notify.SendMsg{Channel: notify.SyncDone})
	assert.ErrorIs(t, err, code.NotifySendMsgErr)
}
