package tracker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/parttrack/internal/chain"
	"github.com/roach88/parttrack/internal/config"
	"github.com/roach88/parttrack/internal/event"
	"github.com/roach88/parttrack/internal/parts"
	"github.com/roach88/parttrack/internal/store"
)

// Service coordinates the event log, the resolver and the part catalog.
type Service struct {
	store   *store.Store
	catalog *parts.Catalog
	policy  config.TrackerConfig

	logger   *zap.Logger
	audit    *zap.Logger
	observer Observer
	now      func() time.Time

	mu    sync.RWMutex
	plans map[string]PrunePlan
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the operational logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithAuditLogger sets the logger that receives prune audit records.
func WithAuditLogger(l *zap.Logger) Option {
	return func(s *Service) { s.audit = l }
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithClock overrides the time source used to stamp scans without an
// explicit scan time.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service. The store and catalog are required.
func New(st *store.Store, catalog *parts.Catalog, policy config.TrackerConfig, opts ...Option) *Service {
	s := &Service{
		store:    st,
		catalog:  catalog,
		policy:   policy,
		logger:   zap.NewNop(),
		audit:    zap.NewNop(),
		observer: nopObserver{},
		now:      func() time.Time { return time.Now().UTC() },
		plans:    make(map[string]PrunePlan),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the part catalog the service validates against.
func (s *Service) Catalog() *parts.Catalog {
	return s.catalog
}

// ChainSet is the result of BuildChains.
type ChainSet struct {
	// Chains are the assembly chains, filtered when Filter is set.
	Chains [][]string `json:"chains"`

	// Effective is the current connection record of every scanned part.
	Effective map[string]event.Record `json:"effective"`

	// Roots are the parts no other part connects to. Chains that start
	// from a closed loop have no root listed.
	Roots []string `json:"roots"`

	// Loops are chains that closed back on themselves.
	Loops []chain.Loop `json:"loops"`

	// Kinds maps every part in Chains to its catalog kind; parts whose
	// number does not parse are omitted.
	Kinds map[string]parts.Kind `json:"kinds"`

	// LastUpdate is the most recent scan time in the log.
	LastUpdate *time.Time `json:"last_update,omitempty"`

	// Filter echoes the filter that was applied.
	Filter string `json:"filter,omitempty"`

	// Digest identifies the unfiltered resolution; see chain.Digest.
	Digest string `json:"digest"`
}

// BuildChains re-reads the whole log and resolves it into chains. A
// non-empty filter keeps only chains with an element containing it.
func (s *Service) BuildChains(ctx context.Context, filter string) (ChainSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, err := s.store.AllEvents(ctx)
	if err != nil {
		return ChainSet{}, storageError("load connection log", err)
	}

	result := chain.Resolve(events)
	digest, err := chain.Digest(result)
	if err != nil {
		return ChainSet{}, err
	}
	filter = parts.Normalize(filter)
	chains := result.Filter(filter)

	kinds := make(map[string]parts.Kind)
	for _, c := range chains {
		for _, p := range c {
			if k := s.catalog.KindOf(p); k != "" {
				kinds[p] = k
			}
		}
	}

	s.observer.ChainsBuilt(len(result.Chains))
	s.observer.DuplicatesFound(len(result.Duplicates))
	if len(result.Loops) > 0 {
		s.logger.Debug("chain traversal closed loops",
			zap.Int("loops", len(result.Loops)),
		)
	}

	return ChainSet{
		Chains:     chains,
		Effective:  result.Effective,
		Roots:      result.Roots,
		Loops:      result.Loops,
		Kinds:      kinds,
		LastUpdate: result.LastUpdate,
		Filter:     filter,
		Digest:     digest,
	}, nil
}

// DuplicateReport returns every raw record of parts scanned more than once.
func (s *Service) DuplicateReport(ctx context.Context) (map[string][]event.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, err := s.store.AllEvents(ctx)
	if err != nil {
		return nil, storageError("load connection log", err)
	}
	dups := chain.Duplicates(events)
	s.observer.DuplicatesFound(len(dups))
	return dups, nil
}

// LastUpdateTimestamp returns the most recent scan or connected-scan time
// in the log, or nil for an empty log.
func (s *Service) LastUpdateTimestamp(ctx context.Context) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ts, err := s.store.LastUpdate(ctx)
	if err != nil {
		return nil, storageError("read last update", err)
	}
	return ts, nil
}

// Verification is the outcome of Verify.
type Verification struct {
	Deterministic bool   `json:"deterministic"`
	Digest        string `json:"digest"`
	Events        int    `json:"events"`
}

// Verify resolves the log twice and reports whether both passes agree,
// together with the digest of the resolution.
func (s *Service) Verify(ctx context.Context) (Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, err := s.store.AllEvents(ctx)
	if err != nil {
		return Verification{}, storageError("load connection log", err)
	}
	digest, err := chain.Digest(chain.Resolve(events))
	if err != nil {
		return Verification{}, err
	}
	return Verification{
		Deterministic: chain.Verify(events),
		Digest:        digest,
		Events:        len(events),
	}, nil
}

// History returns every row mentioning part, in replay order.
func (s *Service) History(ctx context.Context, part string) ([]event.ConnectionEvent, error) {
	part = parts.Normalize(part)
	if part == "" {
		return nil, validationError(CodeInvalidPartNumber, "", "part number is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	events, err := s.store.EventsForPart(ctx, part)
	if err != nil {
		return nil, storageError("load part history", err)
	}
	if len(events) == 0 {
		return nil, &Error{
			Kind:       KindNotFound,
			Code:       CodePartNotFound,
			Message:    "part has no recorded scans",
			PartNumber: part,
		}
	}
	return events, nil
}

// Ping checks that the event log is reachable.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return storageError("ping event log", err)
	}
	return nil
}
