package tracker

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/parttrack/internal/config"
	"github.com/roach88/parttrack/internal/event"
	"github.com/roach88/parttrack/internal/parts"
	"github.com/roach88/parttrack/internal/store"
	"github.com/roach88/parttrack/internal/testutil"
)

type fixture struct {
	svc   *Service
	store *store.Store
	audit *observer.ObservedLogs
	obs   *countingObserver
}

type countingObserver struct {
	chains, appended, dups int
}

func (c *countingObserver) ChainsBuilt(n int)     { c.chains += n }
func (c *countingObserver) EventsAppended(n int)  { c.appended += n }
func (c *countingObserver) DuplicatesFound(n int) { c.dups = n }

func newFixture(t *testing.T, policy config.TrackerConfig) *fixture {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "tracker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	core, logs := observer.New(zapcore.InfoLevel)
	obs := &countingObserver{}
	clock := testutil.NewDeterministicClock()

	svc := New(st, parts.DefaultCatalog(), policy,
		WithAuditLogger(zap.New(core)),
		WithObserver(obs),
		WithClock(clock.Now),
	)
	return &fixture{svc: svc, store: st, audit: logs, obs: obs}
}

func defaultPolicy() config.TrackerConfig {
	return config.DefaultConfig().Tracker
}

func (f *fixture) connect(t *testing.T, part, target string) []event.ConnectionEvent {
	t.Helper()
	rows, err := f.svc.RecordConnection(context.Background(), ConnectRequest{Part: part, Target: target})
	require.NoError(t, err)
	return rows
}

func (f *fixture) disconnect(t *testing.T, part string) {
	t.Helper()
	_, err := f.svc.RecordDisconnection(context.Background(), DisconnectRequest{Part: part})
	require.NoError(t, err)
}

// appendRaw writes rows directly to the store, bypassing validation, to
// build logs the write path would never produce.
func (f *fixture) appendRaw(t *testing.T, rows ...event.ConnectionEvent) {
	t.Helper()
	for _, r := range rows {
		_, err := f.store.Append(context.Background(), r)
		require.NoError(t, err)
	}
}
