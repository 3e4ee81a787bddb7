package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/catalog"
)

func TestDatasetHash_OrderSensitive(t *testing.T) {
	a := &catalog.Dataset{Competitors: []catalog.CompetitorMapping{
		{CompetitorModel: "A", AxisReplacement: "P1"},
		{CompetitorModel: "B", AxisReplacement: "P2"},
	}}
	b := &catalog.Dataset{Competitors: []catalog.CompetitorMapping{a.Competitors[1], a.Competitors[0]}}

	ha, err := DatasetHash(a)
	require.NoError(t, err)
	hb, err := DatasetHash(b)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hb)

	again, _ := DatasetHash(a)
	assert.Equal(t, ha, again)
}

func TestDriftRunner_SwapsOnlyWhenChanged(t *testing.T) {
	engine := testEngine(t)
	ds := &catalog.Dataset{Competitors: []catalog.CompetitorMapping{
		{CompetitorModel: "XNV-6080", Manufacturer: "Bosch", AxisReplacement: "Q1656"},
	}}
	pub := &recordingPublisher{}
	runner := NewDriftRunner(engine, func(context.Context) (*catalog.Dataset, error) {
		return ds, nil
	}, NewSearchAuditor(nil, pub, ""), nil, DriftConfig{}, "")

	first, err := runner.RunCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, first.Changed)
	assert.Equal(t, uint64(1), engine.Generation())
	assert.Len(t, engine.Search("XNV-6080").Results, 1)
	require.Len(t, pub.messages, 1)
	assert.Equal(t, ActionCatalogReload, pub.messages[0].(AuditEvent).Action)

	second, err := runner.RunCheck(context.Background())
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.Equal(t, first.NewHash, second.OldHash)
	assert.Equal(t, uint64(1), engine.Generation())
}

func TestDriftRunner_LoadErrorKeepsIndex(t *testing.T) {
	engine := testEngine(t)
	before := engine.Index()
	runner := NewDriftRunner(engine, func(context.Context) (*catalog.Dataset, error) {
		return nil, errors.New("source unavailable")
	}, nil, nil, DriftConfig{}, "")

	_, err := runner.RunCheck(context.Background())
	assert.Error(t, err)
	assert.Same(t, before, engine.Index())
}

func TestDriftRunner_InvalidDatasetRejected(t *testing.T) {
	engine := testEngine(t)
	runner := NewDriftRunner(engine, func(context.Context) (*catalog.Dataset, error) {
		return &catalog.Dataset{Competitors: []catalog.CompetitorMapping{{CompetitorModel: "A"}}}, nil
	}, nil, nil, DriftConfig{}, "")

	_, err := runner.RunCheck(context.Background())
	assert.Error(t, err)
	assert.Equal(t, uint64(0), engine.Generation())
}

func TestDriftRunner_StartStopsOnCancel(t *testing.T) {
	engine := testEngine(t)
	runner := NewDriftRunner(engine, func(context.Context) (*catalog.Dataset, error) {
		return &catalog.Dataset{}, nil
	}, nil, nil, DriftConfig{CheckInterval: 10 * time.Millisecond}, "")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runner.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return engine.Generation() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}
}
