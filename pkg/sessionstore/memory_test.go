package sessionstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	portal "github.com/goliatone/go-vendor-portal/components/portal"
)

type fakeClock struct {
	now uint32
}

func (c *fakeClock) Now() uint32 { return c.now }

func testSession(now time.Time, ttl time.Duration) portal.Session {
	return portal.Session{
		ID:            "sess-1",
		CustomerID:    "0000001234",
		Authenticated: true,
		Vendor:        &portal.Vendor{Name: "Acme Supplies", City: "Pune"},
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	clock := &fakeClock{now: 1_700_000_000}
	store := NewMemory(WithClock(clock), WithMemorySize(1024*1024))
	now := time.Unix(int64(clock.now), 0).UTC()
	session := testSession(now, time.Hour)

	require.NoError(t, store.Save(context.Background(), session))

	got, err := store.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "0000001234", got.CustomerID)
	assert.True(t, got.Authenticated)
	require.NotNil(t, got.Vendor)
	assert.Equal(t, "Acme Supplies", got.Vendor.Name)
	assert.True(t, got.ExpiresAt.Equal(session.ExpiresAt))
}

func TestMemoryStoreExpires(t *testing.T) {
	clock := &fakeClock{now: 1_700_000_000}
	store := NewMemory(WithClock(clock))
	now := time.Unix(int64(clock.now), 0)

	require.NoError(t, store.Save(context.Background(), testSession(now, 90*time.Second)))

	clock.now += 89
	_, err := store.Load(context.Background(), "sess-1")
	require.NoError(t, err)

	clock.now += 2
	_, err = store.Load(context.Background(), "sess-1")
	assert.ErrorIs(t, err, portal.ErrSessionNotFound)
}

func TestMemoryStoreDropsExpiredOnSave(t *testing.T) {
	clock := &fakeClock{now: 1_700_000_000}
	store := NewMemory(WithClock(clock))
	now := time.Unix(int64(clock.now), 0)

	require.NoError(t, store.Save(context.Background(), testSession(now, time.Hour)))
	require.NoError(t, store.Save(context.Background(), testSession(now, -time.Minute)))

	_, err := store.Load(context.Background(), "sess-1")
	assert.ErrorIs(t, err, portal.ErrSessionNotFound)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemory()
	session := testSession(time.Now(), time.Hour)
	require.NoError(t, store.Save(context.Background(), session))
	assert.Equal(t, int64(1), store.Len())

	require.NoError(t, store.Delete(context.Background(), session.ID))
	assert.ErrorIs(t, store.Delete(context.Background(), session.ID), portal.ErrSessionNotFound)

	_, err := store.Load(context.Background(), session.ID)
	assert.ErrorIs(t, err, portal.ErrSessionNotFound)
}

func TestRemainingRoundsUp(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	assert.Equal(t, 2*time.Second, remaining(now.Add(1500*time.Millisecond), now))
	assert.Equal(t, time.Duration(0), remaining(now, now))
	assert.Equal(t, time.Duration(0), remaining(now.Add(-time.Second), now))
}
