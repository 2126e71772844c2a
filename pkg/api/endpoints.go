package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cyberkunju/NREGA-sub000/pkg/kit"
	"github.com/cyberkunju/NREGA-sub000/pkg/registry"
)

// ErrMissingName is returned when a lookup lacks the state or district.
var ErrMissingName = errors.New("state and district are required")

// Lookup outcomes.
const (
	StatusMapped   = "mapped"
	StatusExcluded = "excluded"
	StatusUnknown  = "unknown"
)

// Shared request/response types used by both HTTP and MCP transports.

type lookupReq struct {
	State    string
	District string
}

type lookupResponse struct {
	registry.Entry
	Status string `json:"status"`
}

type summaryResponse struct {
	Summary registry.Summary `json:"summary"`
	SHA256  string           `json:"sha256"`
}

type collisionsResponse struct {
	Collisions map[string][]string `json:"collisions"`
	Count      int                 `json:"count"`
}

// Service bundles the read-only endpoints over a loaded artifact.
type Service struct {
	store   *registry.Store
	metrics *Metrics

	lookup     kit.Endpoint
	summary    kit.Endpoint
	collisions kit.Endpoint
}

// NewService wires the endpoints with logging and latency middleware.
func NewService(store *registry.Store, metrics *Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{store: store, metrics: metrics}
	wrap := func(name string, ep kit.Endpoint) kit.Endpoint {
		return kit.Chain(kit.Logging(logger, name), metrics.Instrument(name))(ep)
	}
	s.lookup = wrap("lookup", s.lookupEndpoint)
	s.summary = wrap("summary", s.summaryEndpoint)
	s.collisions = wrap("collisions", s.collisionsEndpoint)
	return s
}

// Reload re-reads the artifact from disk and counts the attempt.
func (s *Service) Reload() error {
	err := s.store.Reload()
	s.metrics.ObserveReload(err)
	return err
}

func (s *Service) lookupEndpoint(ctx context.Context, request any) (any, error) {
	req := request.(*lookupReq)
	if req.State == "" || req.District == "" {
		return nil, ErrMissingName
	}
	e := s.store.Lookup(req.State, req.District)
	resp := lookupResponse{Entry: e, Status: StatusUnknown}
	switch {
	case e.Mapping != nil:
		resp.Status = StatusMapped
	case e.Exclusion != nil:
		resp.Status = StatusExcluded
	}
	s.metrics.ObserveLookup(ctx, resp.Status)
	return resp, nil
}

func (s *Service) summaryEndpoint(_ context.Context, _ any) (any, error) {
	return summaryResponse{Summary: s.store.Summary(), SHA256: s.store.Hash()}, nil
}

func (s *Service) collisionsEndpoint(_ context.Context, _ any) (any, error) {
	c := s.store.Collisions()
	return collisionsResponse{Collisions: c, Count: len(c)}, nil
}
