package api

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/cache"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/crossref"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/monitoring"
	"github.com/spherical-ai/spherical/libs/crossref-engine/pkg/client"
)

type recordingPublisher struct {
	events []interface{}
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, message interface{}) error {
	p.events = append(p.events, message)
	return nil
}

func newTestService(t *testing.T, limits Limits) (*Service, *recordingPublisher) {
	t.Helper()
	mem := cache.NewMemoryClient(100)
	t.Cleanup(func() { mem.Close() })

	pub := &recordingPublisher{}
	rc := crossref.NewResponseCache(testEngine(t), mem, nil, crossref.DefaultResponseCacheConfig())
	auditor := monitoring.NewSearchAuditor(nil, pub, "")
	return NewService(rc, auditor, nil, limits), pub
}

func TestService_SearchUsesCache(t *testing.T) {
	svc, pub := newTestService(t, DefaultLimits())
	ctx := context.Background()

	first, err := svc.Search(ctx, "tester", "DS-2CD2143G2-I")
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := svc.Search(ctx, "tester", "DS-2CD2143G2-I")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Results, second.Results)

	require.Len(t, pub.events, 2)
	event, ok := pub.events[0].(monitoring.AuditEvent)
	require.True(t, ok)
	assert.Equal(t, monitoring.ActionSearch, event.Action)
	assert.Equal(t, "tester", event.Operator)
	assert.Equal(t, "P3265-LVE", event.TopModel)
}

func TestService_QueryLengthLimit(t *testing.T) {
	svc, _ := newTestService(t, Limits{MaxQueryLength: 5})

	_, err := svc.Search(context.Background(), "", "ABCDE")
	require.NoError(t, err)

	_, err = svc.Search(context.Background(), "", "ABCDEF")
	require.ErrorIs(t, err, ErrQueryTooLong)
	assert.True(t, IsInvalidInput(err))

	_, err = svc.Search(context.Background(), "", "ÅÄÖÜÉ")
	assert.NoError(t, err, "limit counts characters, not bytes")
}

func TestService_SearchBatch(t *testing.T) {
	svc, pub := newTestService(t, DefaultLimits())

	out, err := svc.SearchBatch(context.Background(), "tester", []string{"DS-2CD2143G2-I", "AXIS 211M", "DS-2CD2143G2-I"})
	require.NoError(t, err)

	assert.NotEmpty(t, out.BatchID)
	assert.Equal(t, 2, out.Count)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "DS-2CD2143G2-I", out.Items[0].Query)
	assert.Equal(t, "legacy", out.Items[1].Response.QueryType)
	assert.True(t, out.Items[0].Response.IsBatch)

	require.Len(t, pub.events, 1)
	assert.Equal(t, monitoring.ActionBatch, pub.events[0].(monitoring.AuditEvent).Action)
}

func TestService_SearchBatchLimits(t *testing.T) {
	svc, _ := newTestService(t, Limits{MaxBatchSize: 2, MaxQueryLength: 10})
	ctx := context.Background()

	_, err := svc.SearchBatch(ctx, "", nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	_, err = svc.SearchBatch(ctx, "", []string{"A", "B", "C"})
	assert.ErrorIs(t, err, ErrBatchTooLarge)

	_, err = svc.SearchBatch(ctx, "", []string{"A", strings.Repeat("B", 11)})
	assert.ErrorIs(t, err, ErrQueryTooLong)
}

func TestService_Configure(t *testing.T) {
	svc, pub := newTestService(t, DefaultLimits())
	ctx := context.Background()

	_, err := svc.Search(ctx, "", "DS-2CD2143G2-I")
	require.NoError(t, err)

	maxResults := 3
	cfg, err := svc.Configure(ctx, "admin", client.ConfigUpdate{MaxResults: &maxResults})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxResults)
	assert.Equal(t, cfg, svc.Config())

	resp, err := svc.Search(ctx, "", "DS-2CD2143G2-I")
	require.NoError(t, err)
	assert.False(t, resp.Cached, "configure invalidates cached responses")

	assert.Equal(t, monitoring.ActionConfigure, pub.events[1].(monitoring.AuditEvent).Action)
}

func TestService_ConfigureRejectsInvalid(t *testing.T) {
	svc, _ := newTestService(t, DefaultLimits())
	ctx := context.Background()

	_, err := svc.Configure(ctx, "", client.ConfigUpdate{})
	assert.ErrorIs(t, err, ErrEmptyUpdate)

	minScore := 20
	_, err = svc.Configure(ctx, "", client.ConfigUpdate{MinScore: &minScore})
	require.ErrorIs(t, err, crossref.ErrInvalidConfig)
	assert.True(t, IsInvalidInput(err))
	assert.Equal(t, 50, svc.Config().MinScore)
}

func TestService_Stats(t *testing.T) {
	svc, _ := newTestService(t, DefaultLimits())
	stats := svc.Stats()
	assert.Equal(t, 1, stats.Competitors)
	assert.Equal(t, 1, stats.Legacy)
	assert.Equal(t, 1, stats.Manufacturers)
}
