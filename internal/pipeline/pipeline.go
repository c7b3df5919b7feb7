package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"fploptimizer/internal/cache"
	"fploptimizer/internal/config"
	"fploptimizer/internal/optimizer"
	"fploptimizer/internal/predictor"
	"fploptimizer/internal/types"
)

// Fetcher is the upstream data capability the pipeline needs.
type Fetcher interface {
	FetchSnapshot(ctx context.Context) (*types.DataSnapshot, error)
}

// Pipeline runs the full fetch -> predict -> optimize flow. Each stage fully
// consumes its predecessor's output; nothing is mutated after handoff, so
// re-running with the same snapshot and constraints yields the same squad
// value.
type Pipeline struct {
	cfg       *config.Config
	fetcher   Fetcher
	store     cache.Store
	predictor *predictor.Predictor
	optimizer *optimizer.SquadOptimizer
	log       *logrus.Entry
}

// New wires the pipeline stages together.
func New(cfg *config.Config, fetcher Fetcher, store cache.Store, log *logrus.Entry) *Pipeline {
	solver := optimizer.NewBranchAndBound(cfg.Solver.MaxNodes, log)
	return &Pipeline{
		cfg:       cfg,
		fetcher:   fetcher,
		store:     store,
		predictor: predictor.New(cfg, log),
		optimizer: optimizer.New(cfg.Solver, solver, log),
		log:       log,
	}
}

// Snapshot returns the upstream data, serving from cache unless force is set.
// Cache failures degrade to a direct fetch; they never fail the run.
func (p *Pipeline) Snapshot(ctx context.Context, force bool) (*types.DataSnapshot, error) {
	if !force {
		snap, err := p.store.GetSnapshot(ctx)
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			p.log.WithError(err).Warn("Snapshot cache read failed, fetching upstream")
		}
	}

	snap, err := p.fetcher.FetchSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.store.SetSnapshot(ctx, snap); err != nil {
		p.log.WithError(err).Warn("Snapshot cache write failed")
	}
	return snap, nil
}

// Project computes horizon projections from a snapshot and caches them under
// the starting gameweek.
func (p *Pipeline) Project(ctx context.Context, snap *types.DataSnapshot) ([]types.PlayerProjection, int, error) {
	startGW, ok := predictor.StartGameweek(snap.Fixtures)
	if !ok {
		return nil, 0, predictor.ErrNoUpcomingFixtures
	}

	if cached, err := p.store.GetProjections(ctx, startGW); err == nil {
		return cached, startGW, nil
	}

	projections, err := p.predictor.ProjectAll(snap.Players, snap.Teams, snap.Fixtures)
	if err != nil {
		return nil, 0, err
	}
	if err := p.store.SetProjections(ctx, startGW, projections); err != nil {
		p.log.WithError(err).Warn("Projection cache write failed")
	}
	return projections, startGW, nil
}

// Run executes one full optimization: snapshot, projections, squad selection.
func (p *Pipeline) Run(ctx context.Context, cons types.Constraints, forceRefresh bool) (*optimizer.Result, error) {
	snap, err := p.Snapshot(ctx, forceRefresh)
	if err != nil {
		return nil, fmt.Errorf("failed to load FPL data: %w", err)
	}

	projections, startGW, err := p.Project(ctx, snap)
	if err != nil {
		return nil, fmt.Errorf("failed to project expected points: %w", err)
	}
	p.log.WithFields(logrus.Fields{
		"start_gameweek": startGW,
		"projections":    len(projections),
	}).Info("Projections ready, optimizing squad")

	return p.optimizer.Optimize(ctx, projections, cons)
}

// Refresh force-fetches the snapshot and recomputes projections. The cron
// schedule calls this so interactive requests hit a warm cache.
func (p *Pipeline) Refresh(ctx context.Context) error {
	snap, err := p.Snapshot(ctx, true)
	if err != nil {
		return err
	}

	startGW, ok := predictor.StartGameweek(snap.Fixtures)
	if !ok {
		return predictor.ErrNoUpcomingFixtures
	}
	projections, err := p.predictor.ProjectAll(snap.Players, snap.Teams, snap.Fixtures)
	if err != nil {
		return err
	}
	if err := p.store.SetProjections(ctx, startGW, projections); err != nil {
		return fmt.Errorf("failed to cache projections: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"start_gameweek": startGW,
		"projections":    len(projections),
	}).Info("Refreshed snapshot and projections")
	return nil
}
