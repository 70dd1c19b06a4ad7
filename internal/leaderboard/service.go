// Package leaderboard serves the village risk ranking for the live registry.
// Boards are memoized per registry version, so a board is only recomputed
// after the cases or water sources actually change.
package leaderboard

import (
	"log/slog"
	"time"

	"github.com/ashaboard/ashaboard/internal/observability"
	"github.com/ashaboard/ashaboard/internal/registry"
	"github.com/ashaboard/ashaboard/pkg/dataset"
	"github.com/ashaboard/ashaboard/pkg/ranking"
)

// Service computes leaderboards from a registry.
type Service struct {
	reg     *registry.Registry
	engine  *ranking.Engine
	cache   *BoardCache
	metrics *observability.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewService wires a leaderboard service. A nil cache gets a default one;
// metrics may be nil.
func NewService(reg *registry.Registry, engine *ranking.Engine, cache *BoardCache, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if engine == nil {
		engine = ranking.NewEngine(ranking.DefaultWeights())
	}
	if cache == nil {
		cache = NewBoardCache(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		reg:     reg,
		engine:  engine,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Current returns the board for the registry's current version. The returned
// board is shared with other callers and must not be modified.
func (s *Service) Current() *ranking.Board {
	if b := s.cache.Get(s.reg.Version()); b != nil {
		s.metrics.CacheHit()
		return b
	}
	return s.boardFor(s.reg.Snapshot())
}

func (s *Service) boardFor(snap registry.Snapshot) *ranking.Board {
	if b := s.cache.Get(snap.Version); b != nil {
		s.metrics.CacheHit()
		return b
	}
	s.metrics.CacheMiss()

	start := time.Now()
	scores := s.engine.Rank(snap.Cases, snap.Sources)
	b := ranking.NewBoard(snap.Version, s.now(), scores)
	s.cache.Put(snap.Version, b)

	s.metrics.RankComputed()
	s.metrics.SetRegistryVersion(snap.Version)
	s.logger.Debug("leaderboard computed",
		"version", snap.Version,
		"villages", len(b.Entries),
		"cases", len(snap.Cases),
		"sources", len(snap.Sources),
		"duration", time.Since(start))
	return b
}

// Summary is the set of headline counts shown on the admin dashboard.
type Summary struct {
	Version        uint64 `json:"version"`
	Workers        int    `json:"workers"`
	ActiveWorkers  int    `json:"activeWorkers"`
	OpenCases      int    `json:"openCases"`
	ResolvedCases  int    `json:"resolvedCases"`
	WaterSources   int    `json:"waterSources"`
	Alerts         int    `json:"alerts"` // sources in warning status
	VillagesAtRisk int    `json:"villagesAtRisk"`
}

// Summary counts a single snapshot, so every figure refers to the same
// registry version.
func (s *Service) Summary() Summary {
	snap := s.reg.Snapshot()
	sum := Summary{
		Version:      snap.Version,
		Workers:      len(snap.Workers),
		WaterSources: len(snap.Sources),
	}
	for _, w := range snap.Workers {
		if w.Status == dataset.WorkerActive {
			sum.ActiveWorkers++
		}
	}
	for _, c := range snap.Cases {
		if c.Status.Open() {
			sum.OpenCases++
		} else {
			sum.ResolvedCases++
		}
	}
	for _, src := range snap.Sources {
		if src.Status == ranking.SourceWarning {
			sum.Alerts++
		}
	}
	sum.VillagesAtRisk = len(s.boardFor(snap).Entries)
	return sum
}
