// Package grpc provides the Connect service for the cross-reference engine.
// Messages are plain Go structs carried by a JSON codec.
package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/api"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/observability"
	"github.com/spherical-ai/spherical/libs/crossref-engine/pkg/client"
)

// ServiceName is the fully qualified Connect service name.
const ServiceName = "crossref.v1.CrossRefService"

// Procedure paths.
const (
	SearchProcedure      = "/" + ServiceName + "/Search"
	SearchBatchProcedure = "/" + ServiceName + "/SearchBatch"
	ConfigureProcedure   = "/" + ServiceName + "/Configure"
	GetStatsProcedure    = "/" + ServiceName + "/GetStats"
)

// OperatorHeader names the caller in audit events.
const OperatorHeader = "X-Operator"

// JSONCodec marshals plain structs with encoding/json. It replaces Connect's
// protobuf-only JSON codec under the same name.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// StatsRequest is the empty GetStats request.
type StatsRequest struct{}

// CrossRefService implements the Connect cross-reference service.
type CrossRefService struct {
	logger  *observability.Logger
	service *api.Service
}

// NewCrossRefService creates a new cross-reference service.
func NewCrossRefService(logger *observability.Logger, service *api.Service) *CrossRefService {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &CrossRefService{
		logger:  logger.WithOperation("connect"),
		service: service,
	}
}

// Search runs one query.
func (s *CrossRefService) Search(ctx context.Context, req *connect.Request[client.SearchRequest]) (*connect.Response[client.SearchResponse], error) {
	resp, err := s.service.Search(ctx, operator(req.Header()), req.Msg.Query)
	if err != nil {
		return nil, s.toConnectError(err)
	}
	return connect.NewResponse(&resp), nil
}

// SearchBatch runs many queries.
func (s *CrossRefService) SearchBatch(ctx context.Context, req *connect.Request[client.BatchRequest]) (*connect.Response[client.BatchResponse], error) {
	resp, err := s.service.SearchBatch(ctx, operator(req.Header()), req.Msg.Queries)
	if err != nil {
		return nil, s.toConnectError(err)
	}
	return connect.NewResponse(&resp), nil
}

// Configure applies a partial settings update.
func (s *CrossRefService) Configure(ctx context.Context, req *connect.Request[client.ConfigUpdate]) (*connect.Response[client.SearchConfig], error) {
	cfg, err := s.service.Configure(ctx, operator(req.Header()), *req.Msg)
	if err != nil {
		return nil, s.toConnectError(err)
	}
	return connect.NewResponse(&cfg), nil
}

// GetStats describes the catalog currently served.
func (s *CrossRefService) GetStats(_ context.Context, _ *connect.Request[StatsRequest]) (*connect.Response[client.StatsResponse], error) {
	stats := s.service.Stats()
	return connect.NewResponse(&stats), nil
}

// operator names the caller for audit events.
func operator(h http.Header) string {
	if name := strings.TrimSpace(h.Get(OperatorHeader)); name != "" {
		return name
	}
	return api.AnonymousOperator
}

// Handler returns the service's path prefix and an http.Handler serving all
// of its procedures.
func (s *CrossRefService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(SearchProcedure, connect.NewUnaryHandler(SearchProcedure, s.Search, opts...))
	mux.Handle(SearchBatchProcedure, connect.NewUnaryHandler(SearchBatchProcedure, s.SearchBatch, opts...))
	mux.Handle(ConfigureProcedure, connect.NewUnaryHandler(ConfigureProcedure, s.Configure, opts...))
	mux.Handle(GetStatsProcedure, connect.NewUnaryHandler(GetStatsProcedure, s.GetStats, opts...))
	return "/" + ServiceName + "/", mux
}

func (s *CrossRefService) toConnectError(err error) error {
	switch {
	case api.IsInvalidInput(err):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	default:
		s.logger.Error().Err(err).Msg("Request failed")
		return connect.NewError(connect.CodeInternal, err)
	}
}
