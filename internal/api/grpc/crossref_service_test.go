package grpc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/api"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/crossref"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/monitoring"
	"github.com/spherical-ai/spherical/libs/crossref-engine/pkg/client"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	idx := catalog.BuildIndex(
		[]catalog.CompetitorMapping{
			{CompetitorModel: "DS-2CD2143G2-I", Manufacturer: "Hikvision", AxisReplacement: "P3265-LVE"},
			{CompetitorModel: "IPC-HFW2831T-ZS", Manufacturer: "Dahua", AxisReplacement: "P1465-LE"},
		},
		nil,
	)
	engine, err := crossref.NewEngine(idx, nil, nil, crossref.DefaultSearchConfig())
	require.NoError(t, err)

	rc := crossref.NewResponseCache(engine, nil, nil, crossref.DefaultResponseCacheConfig())
	svc := NewCrossRefService(nil, api.NewService(rc, nil, nil, api.Limits{MaxQueryLength: 20, MaxBatchSize: 3}))

	mux := http.NewServeMux()
	path, handler := svc.Handler()
	mux.Handle(path, handler)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type auditRecorder struct {
	events []monitoring.AuditEvent
}

func (r *auditRecorder) Publish(_ context.Context, _ string, message interface{}) error {
	if event, ok := message.(monitoring.AuditEvent); ok {
		r.events = append(r.events, event)
	}
	return nil
}

func TestCrossRefService_AuditsOperator(t *testing.T) {
	engine, err := crossref.NewEngine(catalog.BuildIndex(nil, nil), nil, nil, crossref.DefaultSearchConfig())
	require.NoError(t, err)
	rec := &auditRecorder{}
	auditor := monitoring.NewSearchAuditor(nil, rec, "searches")
	rc := crossref.NewResponseCache(engine, nil, nil, crossref.DefaultResponseCacheConfig())
	svc := NewCrossRefService(nil, api.NewService(rc, auditor, nil, api.DefaultLimits()))

	path, handler := svc.Handler()
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := connect.NewClient[client.SearchRequest, client.SearchResponse](
		srv.Client(), srv.URL+SearchProcedure, connect.WithCodec(JSONCodec{}))

	_, err = c.CallUnary(context.Background(), connect.NewRequest(&client.SearchRequest{Query: "P3265-LVE"}))
	require.NoError(t, err)

	named := connect.NewRequest(&client.SearchRequest{Query: "P3265-LVE"})
	named.Header().Set(OperatorHeader, "field-tech")
	_, err = c.CallUnary(context.Background(), named)
	require.NoError(t, err)

	require.Len(t, rec.events, 2)
	assert.Equal(t, api.AnonymousOperator, rec.events[0].Operator)
	assert.Equal(t, "field-tech", rec.events[1].Operator)
}

func TestCrossRefService_Search(t *testing.T) {
	srv := newTestServer(t)
	c := connect.NewClient[client.SearchRequest, client.SearchResponse](
		srv.Client(), srv.URL+SearchProcedure, connect.WithCodec(JSONCodec{}))

	resp, err := c.CallUnary(context.Background(), connect.NewRequest(&client.SearchRequest{Query: "ds-2cd2143g2-i"}))
	require.NoError(t, err)

	assert.Equal(t, "high", resp.Msg.Confidence)
	require.NotEmpty(t, resp.Msg.Results)
	assert.Equal(t, "P3265-LVE", resp.Msg.Results[0].Mapping.Replacement)
}

func TestCrossRefService_SearchRejectsLongQuery(t *testing.T) {
	srv := newTestServer(t)
	c := connect.NewClient[client.SearchRequest, client.SearchResponse](
		srv.Client(), srv.URL+SearchProcedure, connect.WithCodec(JSONCodec{}))

	_, err := c.CallUnary(context.Background(), connect.NewRequest(&client.SearchRequest{Query: strings.Repeat("X", 21)}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestCrossRefService_SearchBatch(t *testing.T) {
	srv := newTestServer(t)
	c := connect.NewClient[client.BatchRequest, client.BatchResponse](
		srv.Client(), srv.URL+SearchBatchProcedure, connect.WithCodec(JSONCodec{}))

	resp, err := c.CallUnary(context.Background(), connect.NewRequest(&client.BatchRequest{
		Queries: []string{"IPC-HFW2831T-ZS", "Hikvision"},
	}))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Items, 2)
	assert.Equal(t, "manufacturer", resp.Msg.Items[1].Response.QueryType)

	_, err = c.CallUnary(context.Background(), connect.NewRequest(&client.BatchRequest{
		Queries: []string{"A", "B", "C", "D"},
	}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestCrossRefService_ConfigureAndStats(t *testing.T) {
	srv := newTestServer(t)
	configure := connect.NewClient[client.ConfigUpdate, client.SearchConfig](
		srv.Client(), srv.URL+ConfigureProcedure, connect.WithCodec(JSONCodec{}))
	stats := connect.NewClient[StatsRequest, client.StatsResponse](
		srv.Client(), srv.URL+GetStatsProcedure, connect.WithCodec(JSONCodec{}))

	minScore := 75
	resp, err := configure.CallUnary(context.Background(), connect.NewRequest(&client.ConfigUpdate{MinScore: &minScore}))
	require.NoError(t, err)
	assert.Equal(t, 75, resp.Msg.MinScore)

	bad := 101
	_, err = configure.CallUnary(context.Background(), connect.NewRequest(&client.ConfigUpdate{MinScore: &bad}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	st, err := stats.CallUnary(context.Background(), connect.NewRequest(&StatsRequest{}))
	require.NoError(t, err)
	assert.Equal(t, 2, st.Msg.Competitors)
	assert.Equal(t, 2, st.Msg.Manufacturers)
}

func TestJSONCodec(t *testing.T) {
	codec := JSONCodec{}
	assert.Equal(t, "json", codec.Name())

	data, err := codec.Marshal(client.SearchRequest{Query: "Q"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":"Q"}`, string(data))

	var out client.SearchRequest
	require.NoError(t, codec.Unmarshal(data, &out))
	assert.Equal(t, "Q", out.Query)
}
