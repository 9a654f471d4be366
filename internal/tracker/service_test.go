package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/parttrack/internal/config"
	"github.com/roach88/parttrack/internal/event"
	tu "github.com/roach88/parttrack/internal/testutil"
)

func TestBuildChains_Empty(t *testing.T) {
	f := newFixture(t, defaultPolicy())

	set, err := f.svc.BuildChains(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, set.Chains)
	assert.NotNil(t, set.Chains)
	assert.Nil(t, set.LastUpdate)
}

func TestBuildChains_FullAssembly(t *testing.T) {
	f := newFixture(t, defaultPolicy())

	f.connect(t, "ANT00001", "LNA00001")
	f.connect(t, "LNA00001", "COAX00001")
	f.connect(t, "COAX00001", "BACK00001")
	f.connect(t, "BACK00001", "SNAP00001")
	f.connect(t, "ANT00002", "LNA00002")

	set, err := f.svc.BuildChains(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"ANT00001", "LNA00001", "COAX00001", "BACK00001", "SNAP00001"},
		{"ANT00002", "LNA00002"},
	}, set.Chains)
	assert.Equal(t, []string{"ANT00001", "ANT00002"}, set.Roots)
	assert.Equal(t, "SNAP", string(set.Kinds["SNAP00001"]))
	require.NotNil(t, set.LastUpdate)
	assert.Equal(t, tu.At(5), *set.LastUpdate)
	assert.Equal(t, 2, f.obs.chains)
	assert.Equal(t, 5, f.obs.appended)
}

func TestBuildChains_Filter(t *testing.T) {
	f := newFixture(t, defaultPolicy())

	f.connect(t, "ANT00001", "LNA00001")
	f.connect(t, "ANT00002", "LNA00002")

	set, err := f.svc.BuildChains(context.Background(), "lna00002")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ANT00002", "LNA00002"}}, set.Chains)
	assert.Equal(t, "LNA00002", set.Filter)

	set, err = f.svc.BuildChains(context.Background(), "SNAP")
	require.NoError(t, err)
	assert.Equal(t, [][]string{}, set.Chains)
}

func TestRecordConnection_Normalizes(t *testing.T) {
	f := newFixture(t, defaultPolicy())

	rows, err := f.svc.RecordConnection(context.Background(), ConnectRequest{
		Part:               " ant00001 ",
		Polarization:       "e",
		Target:             "lna00001",
		TargetPolarization: "E",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Positive(t, row.ID)
	assert.Equal(t, "ANT00001", row.PartNumber)
	assert.Equal(t, "ANTENNA", row.PartType)
	assert.Equal(t, "E", row.Polarization)
	assert.Equal(t, "LNA00001", row.ConnectedTo)
	assert.Equal(t, "LNA", row.ConnectedToType)
	assert.Equal(t, event.StatusConnected, row.Status)
	assert.Equal(t, tu.At(1), row.ScanTime)
}

func TestRecordConnection_ExplicitScanTimes(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	scan := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	targetScan := scan.Add(time.Minute)

	rows, err := f.svc.RecordConnection(context.Background(), ConnectRequest{
		Part: "ANT00001", Target: "LNA00001", ScanTime: &scan, TargetScanTime: &targetScan,
	})
	require.NoError(t, err)
	assert.Equal(t, scan, rows[0].ScanTime)
	require.NotNil(t, rows[0].ConnectedScanTime)
	assert.Equal(t, targetScan, *rows[0].ConnectedScanTime)

	ts, err := f.svc.LastUpdateTimestamp(context.Background())
	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.Equal(t, targetScan, *ts)
}

func TestRecordConnection_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  ConnectRequest
		code string
	}{
		{"bad part", ConnectRequest{Part: "BOGUS", Target: "LNA00001"}, CodeInvalidPartNumber},
		{"bad target", ConnectRequest{Part: "ANT00001", Target: "LNA1"}, CodeInvalidPartNumber},
		{"type mismatch", ConnectRequest{Part: "ANT00001", PartType: "LNA", Target: "LNA00001"}, CodeTypeMismatch},
		{"unknown type", ConnectRequest{Part: "ANT00001", PartType: "WIDGET", Target: "LNA00001"}, CodeTypeMismatch},
		{"bad polarization", ConnectRequest{Part: "ANT00001", Polarization: "X", Target: "LNA00001"}, CodeInvalidPolarization},
		{"unpolarized kind", ConnectRequest{Part: "BACK00001", Polarization: "E", Target: "SNAP00001"}, CodeInvalidPolarization},
		{"self connection", ConnectRequest{Part: "ANT00001", Target: "ant00001"}, CodeSelfConnection},
		{"illegal order", ConnectRequest{Part: "ANT00001", Target: "SNAP00001"}, CodeIllegalOrder},
		{"reversed order", ConnectRequest{Part: "LNA00001", Target: "ANT00001"}, CodeIllegalOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, defaultPolicy())

			_, err := f.svc.RecordConnection(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, IsValidation(err), "want validation error, got %v", err)
			assert.Equal(t, tt.code, CodeOf(err))

			count, err := f.store.CountEvents(context.Background())
			require.NoError(t, err)
			assert.Zero(t, count, "rejected request must not append")
		})
	}
}

func TestRecordConnection_OrderNotEnforced(t *testing.T) {
	policy := defaultPolicy()
	policy.EnforceOrder = false
	f := newFixture(t, policy)

	f.connect(t, "ANT00001", "SNAP00001")
}

func TestRecordConnection_LastWriteWinsByDefault(t *testing.T) {
	f := newFixture(t, defaultPolicy())

	f.connect(t, "ANT00001", "LNA00001")
	f.connect(t, "ANT00001", "LNA00002")

	set, err := f.svc.BuildChains(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ANT00001", "LNA00002"}}, set.Chains)
}

func TestRecordConnection_Strict(t *testing.T) {
	policy := defaultPolicy()
	policy.Strict = true
	f := newFixture(t, policy)
	ctx := context.Background()

	f.connect(t, "ANT00001", "LNA00001")

	_, err := f.svc.RecordConnection(ctx, ConnectRequest{Part: "ANT00001", Target: "LNA00002"})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.Equal(t, CodeAlreadyConnected, CodeOf(err))

	// Re-scanning the same link is fine.
	f.connect(t, "ANT00001", "LNA00001")

	// After a disconnect the part is free again.
	f.disconnect(t, "ANT00001")
	f.connect(t, "ANT00001", "LNA00002")

	set, err := f.svc.BuildChains(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ANT00001", "LNA00002"}}, set.Chains)
}

func TestRecordConnection_Bidirectional(t *testing.T) {
	policy := defaultPolicy()
	policy.Bidirectional = true
	f := newFixture(t, policy)

	rows := f.connect(t, "ANT00001", "LNA00001")
	require.Len(t, rows, 2)
	assert.Equal(t, "LNA00001", rows[1].PartNumber)
	assert.Equal(t, "ANT00001", rows[1].ConnectedTo)
	assert.Equal(t, "LNA", rows[1].PartType)
	assert.Equal(t, "ANTENNA", rows[1].ConnectedToType)
	assert.Greater(t, rows[1].ID, rows[0].ID)

	set, err := f.svc.BuildChains(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ANT00001", "LNA00001"}}, set.Chains)
	assert.Len(t, set.Loops, 1)
}

func TestRecordConnection_BidirectionalMirrorReplacesTargetLink(t *testing.T) {
	policy := defaultPolicy()
	policy.Bidirectional = true
	f := newFixture(t, policy)

	// Scanned out of assembly order: the ANT00001 mirror becomes
	// LNA00001's latest row and replaces its link to COAX00001.
	f.connect(t, "LNA00001", "COAX00001")
	f.connect(t, "ANT00001", "LNA00001")

	set, err := f.svc.BuildChains(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "ANT00001", set.Effective["LNA00001"].ConnectedTo)
	assert.Equal(t, "LNA00001", set.Effective["COAX00001"].ConnectedTo)
}

func TestRecordDisconnection(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()

	f.connect(t, "ANT00001", "LNA00001")
	f.connect(t, "LNA00001", "COAX00001")
	f.disconnect(t, "LNA00001")
	// Idempotent.
	f.disconnect(t, "LNA00001")

	set, err := f.svc.BuildChains(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ANT00001", "LNA00001"}}, set.Chains)
	assert.Equal(t, "", set.Effective["LNA00001"].ConnectedTo)
	assert.Equal(t, event.StatusDisconnected, set.Effective["LNA00001"].Status)
}

func TestRecordDisconnection_Validation(t *testing.T) {
	f := newFixture(t, defaultPolicy())

	_, err := f.svc.RecordDisconnection(context.Background(), DisconnectRequest{Part: "nope"})
	assert.True(t, IsValidation(err))

	_, err = f.svc.RecordDisconnection(context.Background(), DisconnectRequest{Part: "ANT00001", Target: "nope"})
	assert.True(t, IsValidation(err))
}

func TestRecordDisconnection_BidirectionalWithTarget(t *testing.T) {
	policy := defaultPolicy()
	policy.Bidirectional = true
	f := newFixture(t, policy)

	f.connect(t, "ANT00001", "LNA00001")
	rows, err := f.svc.RecordDisconnection(context.Background(), DisconnectRequest{Part: "ANT00001", Target: "LNA00001"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	set, err := f.svc.BuildChains(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ANT00001"}, {"LNA00001"}}, set.Chains)
}

func TestRecordDisconnection_BidirectionalKeepsTargetsOtherLink(t *testing.T) {
	policy := defaultPolicy()
	policy.Bidirectional = true
	f := newFixture(t, policy)
	ctx := context.Background()

	f.connect(t, "ANT00001", "LNA00001")
	f.connect(t, "LNA00001", "COAX00001")
	f.connect(t, "COAX00001", "BACK00001")

	// LNA00001 now points at COAX00001, so only ANT00001 is disconnected.
	rows, err := f.svc.RecordDisconnection(ctx, DisconnectRequest{Part: "ANT00001", Target: "LNA00001"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ANT00001", rows[0].PartNumber)

	set, err := f.svc.BuildChains(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "COAX00001", set.Effective["LNA00001"].ConnectedTo)
	assert.Equal(t, [][]string{{"ANT00001"}, {"LNA00001", "COAX00001", "BACK00001"}}, set.Chains)
}

func TestRecordDisconnection_BidirectionalUnscannedTarget(t *testing.T) {
	policy := defaultPolicy()
	policy.Bidirectional = true
	f := newFixture(t, policy)

	rows, err := f.svc.RecordDisconnection(context.Background(), DisconnectRequest{Part: "ANT00001", Target: "LNA00009"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestHistory(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	ctx := context.Background()

	f.connect(t, "ANT00001", "LNA00001")
	f.connect(t, "LNA00001", "COAX00001")

	events, err := f.svc.History(ctx, "lna00001")
	require.NoError(t, err)
	assert.Len(t, events, 2)

	_, err = f.svc.History(ctx, "SNAP00009")
	assert.True(t, IsNotFound(err))
	assert.Equal(t, CodePartNotFound, CodeOf(err))

	_, err = f.svc.History(ctx, "  ")
	assert.True(t, IsValidation(err))
}

func TestDuplicateReport(t *testing.T) {
	f := newFixture(t, defaultPolicy())

	f.connect(t, "ANT00001", "LNA00001")
	f.connect(t, "ANT00001", "LNA00002")
	f.connect(t, "LNA00001", "COAX00001")

	dups, err := f.svc.DuplicateReport(context.Background())
	require.NoError(t, err)
	require.Len(t, dups, 1)
	require.Len(t, dups["ANT00001"], 2)
	assert.Equal(t, "LNA00001", dups["ANT00001"][0].ConnectedTo)
	assert.Equal(t, "LNA00002", dups["ANT00001"][1].ConnectedTo)
	assert.Equal(t, 1, f.obs.dups)
}

func TestVerify(t *testing.T) {
	f := newFixture(t, defaultPolicy())

	f.connect(t, "ANT00001", "LNA00001")
	f.appendRaw(t, tu.Connect(0, "X", "Y", 1), tu.Connect(0, "Y", "X", 1))

	v, err := f.svc.Verify(context.Background())
	require.NoError(t, err)
	assert.True(t, v.Deterministic)
	assert.Equal(t, 3, v.Events)
	assert.Len(t, v.Digest, 64)

	set, err := f.svc.BuildChains(context.Background(), "ANT")
	require.NoError(t, err)
	assert.Equal(t, v.Digest, set.Digest, "filtering must not change the digest")
}

func TestStorageErrors(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	require.NoError(t, f.store.Close())
	ctx := context.Background()

	_, err := f.svc.BuildChains(ctx, "")
	assert.True(t, IsStorage(err))

	_, err = f.svc.RecordConnection(ctx, ConnectRequest{Part: "ANT00001", Target: "LNA00001"})
	assert.True(t, IsStorage(err))

	_, err = f.svc.LastUpdateTimestamp(ctx)
	assert.True(t, IsStorage(err))
}

func TestPolicyDefaults(t *testing.T) {
	assert.Equal(t, config.TrackerConfig{EnforceOrder: true}, defaultPolicy())
}
