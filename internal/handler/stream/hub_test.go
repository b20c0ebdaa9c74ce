package stream

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Omnitrade/internal/domain/models"
	"Omnitrade/internal/service/feed"
	xlogger "Omnitrade/pkg/logger"
)

func serve(t *testing.T, latest LatestFunc) (*Hub, string) {
	t.Helper()
	hub := NewHub(xlogger.Nop(), latest)
	e := echo.New()
	hub.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func next(t *testing.T, frames <-chan *models.Payload) *models.Payload {
	t.Helper()
	select {
	case p, ok := <-frames:
		require.True(t, ok, "stream closed")
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
		return nil
	}
}

func TestHub_SendsLatestOnConnectThenBroadcasts(t *testing.T) {
	first := &models.Payload{Health: 97, Mode: models.ModeFull, Timestamp: "16:02:11"}
	hub, url := serve(t, func() *models.Payload { return first })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := feed.New(url, time.Second)
	require.NoError(t, c.Connect(ctx))
	frames, _ := c.Read(ctx)

	got := next(t, frames)
	assert.Equal(t, 97, got.Health)
	assert.Equal(t, "16:02:11", got.Timestamp)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)
	hub.Broadcast(&models.Payload{
		Health: 55,
		Mode:   models.ModeDefensive,
		Scanners: models.Scan{
			Volatility:  models.VolatilityHigh,
			Correlation: models.Correlation{ClusterA: []string{"SOL"}, StressIndex: 0.9},
		},
	})
	got = next(t, frames)
	assert.Equal(t, models.ModeDefensive, got.Mode)
	assert.Equal(t, 0.9, got.Scanners.Correlation.StressIndex)
}

func TestHub_NoFrameBeforeFirstCycle(t *testing.T) {
	hub, url := serve(t, func() *models.Payload { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := feed.New(url, time.Second)
	require.NoError(t, c.Connect(ctx))
	frames, _ := c.Read(ctx)

	select {
	case p := <-frames:
		t.Fatalf("unexpected frame %+v", p)
	case <-time.After(100 * time.Millisecond):
	}

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)
	hub.Broadcast(&models.Payload{Health: 80, Mode: models.ModeReduced})
	assert.Equal(t, models.ModeReduced, next(t, frames).Mode)
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	hub, url := serve(t, nil)

	c := feed.New(url, time.Second)
	require.NoError(t, c.Connect(context.Background()))
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Close())
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}
