package app

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Dmitrij-bot/vinabook/config"
	"github.com/Dmitrij-bot/vinabook/internal/notify"
	"github.com/Dmitrij-bot/vinabook/internal/repository"
	"github.com/Dmitrij-bot/vinabook/internal/resource"
	"github.com/Dmitrij-bot/vinabook/internal/testutil/fakeapi"
)

func testConfig(srv *fakeapi.Server) config.Config {
	cfg := config.Default()
	cfg.API.BaseURL = srv.BaseURL()
	cfg.Storage.Driver = config.DriverMemory
	cfg.GRPC.Host = "127.0.0.1:0"
	cfg.Metrics.Addr = "127.0.0.1:0"
	cfg.Sync.Schedule = "@every 1h"
	return cfg
}

func newTestApp(t *testing.T, cfg config.Config) (*App, *notify.Recorder) {
	t.Helper()
	log, _ := test.NewNullLogger()
	rec := &notify.Recorder{}
	return New(cfg, logrus.NewEntry(log), rec), rec
}

func cartHealth(t *testing.T, app *App) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := app.Health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "cart"})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestApp_StartServesHealthAndMetrics(t *testing.T) {
	srv := fakeapi.New()
	t.Cleanup(srv.Close)
	srv.SetCart([]resource.CartItem{{ID: "c1", Book: resource.BookSnapshot{ID: "book-1", Price: 10000}, Quantity: 2, Status: resource.CartPending}})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	app, _ := newTestApp(t, testConfig(srv))
	require.NoError(t, app.Start(ctx))
	defer func() { require.NoError(t, app.Stop(ctx)) }()

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, cartHealth(t, app))
	assert.Equal(t, 1, app.Cart.Snapshot().Quantity)
	assert.NotEmpty(t, app.GRPCAddr())

	resp, err := http.Get("http://" + app.MetricsAddr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `vinabook_sync_runs_total{result="ok"} 1`)
	assert.Contains(t, string(body), `vinabook_client_requests_total{method="GET",route="/cart",status="200"} 1`)
}

func TestApp_FailedSyncIsNotServing(t *testing.T) {
	srv := fakeapi.New()
	t.Cleanup(srv.Close)
	srv.FailNext(http.MethodGet, "/cart", http.StatusInternalServerError, "database down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	app, _ := newTestApp(t, testConfig(srv))
	require.NoError(t, app.Start(ctx))
	defer func() { require.NoError(t, app.Stop(ctx)) }()

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, cartHealth(t, app))
}

func TestApp_InvalidSchedule(t *testing.T) {
	srv := fakeapi.New()
	t.Cleanup(srv.Close)

	cfg := testConfig(srv)
	cfg.Sync.Schedule = "every now and then"

	ctx := context.Background()
	app, _ := newTestApp(t, cfg)
	err := app.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot start cart sync")
	require.NoError(t, app.Stop(ctx))
}

func TestApp_SQLiteSessionSurvivesRestart(t *testing.T) {
	srv := fakeapi.New()
	srv.RequireToken = true
	t.Cleanup(srv.Close)

	cfg := testConfig(srv)
	cfg.Storage.Driver = config.DriverSQLite
	cfg.Storage.SQLite.Path = filepath.Join(t.TempDir(), "state", "session.db")
	ctx := context.Background()

	first, _ := newTestApp(t, cfg)
	require.NoError(t, first.Open(ctx))
	res, err := first.Session.Login(ctx, resource.CredentialsLogin{Username: "lan", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "/client/home", res.Route)
	require.NoError(t, first.Stop(ctx))

	second, _ := newTestApp(t, cfg)
	require.NoError(t, second.Open(ctx))
	defer func() { require.NoError(t, second.Stop(ctx)) }()

	u, ok := second.Session.User()
	require.True(t, ok)
	assert.Equal(t, "lan", u.Username)

	token, found, err := second.Repo.Get(ctx, repository.KeyToken)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "token-lan", token)

	require.NoError(t, second.Cart.Fetch(ctx))
	auth := srv.AuthHeaders()
	assert.Equal(t, "Bearer token-lan", auth[len(auth)-1])
}

func TestApp_PayQueuesOrderEvent(t *testing.T) {
	srv := fakeapi.New()
	t.Cleanup(srv.Close)
	srv.AddBook(resource.Book{ID: "book-42", Name: "Dế Mèn Phiêu Lưu Ký", Price: 68000, Quantity: 5})

	cfg := testConfig(srv)
	ctx := context.Background()

	app, rec := newTestApp(t, cfg)
	require.NoError(t, app.Open(ctx))
	defer func() { require.NoError(t, app.Stop(ctx)) }()

	require.NoError(t, app.Cart.Add(ctx, "book-42"))
	_, err := app.Cart.Pay(ctx, resource.PayRequest{NameClient: "Lan", PhoneNumber: "0973285886", Address: "Hà Nội"})
	require.NoError(t, err)
	assert.Equal(t, "Đặt hàng thành công", rec.Last().Message)

	event, err := app.storage.outbox.GetKafkaMessage(ctx)
	require.NoError(t, err)
	assert.NotZero(t, event.ID)
	assert.Contains(t, event.Message, `"total":98000`)
}

func TestNewStorage_UnknownDriver(t *testing.T) {
	_, err := newStorage(config.Storage{Driver: "mongodb"})
	assert.Error(t, err)
}

// slowComponent finishes starting only once released.
type slowComponent struct {
	release chan struct{}
	stopped atomic.Bool
}

func (c *slowComponent) Start(context.Context) error {
	<-c.release
	return nil
}

func (c *slowComponent) Stop(context.Context) error {
	c.stopped.Store(true)
	return nil
}

func TestApp_LateStartAfterStopIsStopped(t *testing.T) {
	srv := fakeapi.New()
	t.Cleanup(srv.Close)
	app, _ := newTestApp(t, testConfig(srv))

	slow := &slowComponent{release: make(chan struct{})}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := app.start(ctx, cmp{slow, "slow"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NoError(t, app.Stop(context.Background()))

	close(slow.release)
	require.Eventually(t, slow.stopped.Load, time.Second, 5*time.Millisecond)

	app.mu.Lock()
	defer app.mu.Unlock()
	assert.Empty(t, app.cmps)
}
