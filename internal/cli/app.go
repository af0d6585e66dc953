package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/Chative-core-poc-v1/cookbook/internal/extract"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract/llm"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract/model"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract/repo"
	logx "github.com/Chative-core-poc-v1/cookbook/pkg/logger"
)

// app holds what the commands share for one invocation.
type app struct {
	cfg       *AppConfig
	extractor *extract.Extractor
	metrics   *extract.Metrics
	store     model.GraphStore
	closers   []func(context.Context) error
}

func newApp(ctx context.Context, cfg *AppConfig, o *options) (*app, error) {
	a := &app{cfg: cfg, metrics: extract.NewMetrics(), store: o.store}

	gen := o.generator
	if gen == nil {
		var err error
		gen, err = llm.New(ctx, cfg.LLM)
		if err != nil {
			return nil, err
		}
	}

	exOpts := []extract.Option{
		extract.WithMetrics(a.metrics),
		extract.WithMaxRetries(cfg.Extract.MaxRetries),
		extract.WithMaxTurns(cfg.Extract.MaxTurns),
	}
	if cfg.Redis.Enabled() && !o.noCache {
		ttl, err := cfg.Extract.TTL()
		if err != nil {
			return nil, err
		}
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
		exOpts = append(exOpts, extract.WithCache(repo.NewRedisResponseCache(rdb, ttl)))
		logx.Debug().Dur("ttl", ttl).Msg("response cache enabled")
	}

	ex, err := extract.New(ctx, gen, exOpts...)
	if err != nil {
		_ = a.close(ctx)
		return nil, err
	}
	a.extractor = ex
	return a, nil
}

// graphStore opens the Neo4j store on first use.
func (a *app) graphStore(ctx context.Context) (model.GraphStore, error) {
	if a.store != nil {
		return a.store, nil
	}
	if !a.cfg.Neo4j.Enabled() {
		return nil, errors.New("graph persistence needs NEO4J_URL")
	}
	driver, err := a.cfg.Neo4j.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect neo4j: %w", err)
	}
	a.closers = append(a.closers, driver.Close)
	a.store = repo.NewNeo4jGraphStore(driver, a.cfg.Neo4j.Database)
	return a.store, nil
}

func (a *app) close(ctx context.Context) error {
	var errs []error
	if err := a.metrics.WriteTextfile(a.cfg.MetricsTextfile); err != nil {
		errs = append(errs, fmt.Errorf("write metrics: %w", err))
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
