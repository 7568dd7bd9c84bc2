package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/drivefacade/internal/drive"
	"github.com/teemow/drivefacade/internal/drive/drivetest"
)

func newTestContext(t *testing.T, fake *drivetest.Server) *ServerContext {
	t.Helper()
	client := drive.NewClient(drive.Config{
		HTTPClient:    fake.Client(),
		Endpoint:      fake.Endpoint(),
		BatchEndpoint: fake.BatchEndpoint(),
	})
	sc := NewServerContext(context.Background(), client, Options{ReadOnly: true})
	t.Cleanup(sc.Shutdown)
	return sc
}

func TestServerContext_LazyInit(t *testing.T) {
	fake := drivetest.NewServer(t)
	fake.Limit = "100"
	fake.Usage = "10"
	sc := newTestContext(t, fake)

	assert.False(t, sc.Ready())
	assert.True(t, sc.ReadOnly())

	var quota *drive.QuotaInfo
	err := sc.Do(context.Background(), func(ctx context.Context, c *drive.Client) error {
		var err error
		quota, err = c.Quota(ctx)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(90), quota.Available())
	assert.True(t, sc.Ready())
}

func TestServerContext_InitFailure(t *testing.T) {
	client := drive.NewClient(drive.Config{CredentialsFile: "/nonexistent/credentials.json"})
	sc := NewServerContext(context.Background(), client, Options{})
	defer sc.Shutdown()

	called := false
	err := sc.Do(context.Background(), func(context.Context, *drive.Client) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, drive.ErrInit)
	assert.False(t, called)
	assert.False(t, sc.Ready())
}

func TestServerContext_SerializesOperations(t *testing.T) {
	fake := drivetest.NewServer(t)
	sc := newTestContext(t, fake)
	require.NoError(t, sc.Init(context.Background()))

	var inFlight, maxInFlight int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sc.Do(context.Background(), func(ctx context.Context, c *drive.Client) error {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					m := atomic.LoadInt32(&maxInFlight)
					if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
						break
					}
				}
				_, err := c.ListFiles(ctx, 1)
				atomic.AddInt32(&inFlight, -1)
				return err
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInFlight)
}

func TestServerContext_PropagatesError(t *testing.T) {
	fake := drivetest.NewServer(t)
	sc := newTestContext(t, fake)

	boom := errors.New("boom")
	err := sc.Do(context.Background(), func(context.Context, *drive.Client) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestServerContext_Shutdown(t *testing.T) {
	fake := drivetest.NewServer(t)
	sc := newTestContext(t, fake)
	require.NoError(t, sc.Init(context.Background()))

	assert.False(t, sc.IsShutdown())
	sc.Shutdown()
	sc.Shutdown()
	assert.True(t, sc.IsShutdown())
	assert.False(t, sc.Ready())
	assert.Error(t, sc.Context().Err())
}
