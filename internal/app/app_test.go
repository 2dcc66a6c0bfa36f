package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mixcore/core/internal/settings"
)

func TestAcquireInstanceLockAssignsIncreasingIDs(t *testing.T) {
	dir := t.TempDir()

	first, err := AcquireInstanceLock(dir)
	require.NoError(t, err)
	require.Equal(t, 0, first.ID())

	second, err := AcquireInstanceLock(dir)
	require.NoError(t, err)
	require.Equal(t, 1, second.ID())
	require.NotEqual(t, first.ID(), second.ID())
}

func TestReleaseFreesInstanceIDForReuse(t *testing.T) {
	dir := t.TempDir()

	lock, err := AcquireInstanceLock(dir)
	require.NoError(t, err)
	require.Equal(t, 0, lock.ID())
	require.NoError(t, lock.Release())

	reacquired, err := AcquireInstanceLock(dir)
	require.NoError(t, err)
	require.Equal(t, 0, reacquired.ID())
}

func TestAcquireInstanceLockWritesPidFile(t *testing.T) {
	dir := t.TempDir()
	lock, err := AcquireInstanceLock(dir)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, "mixcore.0.lock"))
	require.NoError(t, lock.Release())
}

func TestNewWiresCollaboratorsWithoutNetworkIO(t *testing.T) {
	cfg := settings.New(settings.Default())
	a := New(cfg)

	require.NotNil(t, a.Session)
	require.NotNil(t, a.History)
	require.NotNil(t, a.Snapshots)
	require.NotNil(t, a.Clock)
	require.NotNil(t, a.Input)
	require.NotNil(t, a.Router)

	// Tick's Session.Render/Router.Tick legs are exercised directly here;
	// Input.Tick polls live keyboard state via ebiten, which requires an
	// active ebiten game loop and is exercised by internal/input's tests
	// through Bind/Fire instead of Tick.
	require.NotPanics(t, func() {
		a.Router.Tick(16 * time.Millisecond)
		a.Session.Render(16 * time.Millisecond)
	})
}
