//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
)

func setupRedisContainer(t *testing.T) (*goredis.Client, func()) {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: endpoint})
	require.NoError(t, rdb.Ping(ctx).Err())

	cleanup := func() {
		_ = rdb.Close()
		container.Terminate(ctx)
	}
	return rdb, cleanup
}

func TestSlotLocker_ExclusiveUntilReleased(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rdb, cleanup := setupRedisContainer(t)
	defer cleanup()

	ctx := context.Background()
	locker := NewSlotLocker(rdb, time.Minute, "test")
	from := time.Date(2030, time.June, 3, 9, 0, 0, 0, time.UTC)
	slot := domain.TimeSlot{From: from, To: from.Add(30 * time.Minute)}

	release, err := locker.Acquire(ctx, slot)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, slot)
	require.ErrorIs(t, err, ports.ErrSlotLocked)

	require.NoError(t, release(ctx))
	again, err := locker.Acquire(ctx, slot)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestSlotLocker_ExpiredHolderCannotReleaseNewLock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rdb, cleanup := setupRedisContainer(t)
	defer cleanup()

	ctx := context.Background()
	locker := NewSlotLocker(rdb, 200*time.Millisecond, "test")
	from := time.Date(2030, time.June, 3, 9, 0, 0, 0, time.UTC)
	slot := domain.TimeSlot{From: from, To: from.Add(30 * time.Minute)}

	stale, err := locker.Acquire(ctx, slot)
	require.NoError(t, err)
	time.Sleep(400 * time.Millisecond)

	_, err = locker.Acquire(ctx, slot)
	require.NoError(t, err)
	require.NoError(t, stale(ctx))

	_, err = locker.Acquire(ctx, slot)
	require.ErrorIs(t, err, ports.ErrSlotLocked)
}
