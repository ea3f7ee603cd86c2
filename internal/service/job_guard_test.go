package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobGuard_TryLock(t *testing.T) {
	var g jobGuard

	require.True(t, g.TryLock("publish-due"))
	assert.False(t, g.TryLock("publish-due"))
	require.True(t, g.TryLock("menu-links"))
	assert.Equal(t, []string{"menu-links", "publish-due"}, g.Running())

	g.Unlock("publish-due")
	g.Unlock("menu-links")
	assert.Empty(t, g.Running())

	require.True(t, g.TryLock("publish-due"))
	g.Unlock("publish-due")
}

func TestJobGuard_WaitAll(t *testing.T) {
	var g jobGuard
	require.True(t, g.TryLock("job-a"))

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		g.WaitAll(ctx)
		close(done)
	}()

	go func() {
		time.Sleep(20 * time.Millisecond)
		g.Unlock("job-a")
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("WaitAll timed out")
	}
}
