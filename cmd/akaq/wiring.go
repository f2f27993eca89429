package main

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/aka-qualia/internal/config"
	"github.com/danielpatrickdp/aka-qualia/internal/feedback"
	"github.com/danielpatrickdp/aka-qualia/internal/ledger"
	"github.com/danielpatrickdp/aka-qualia/internal/mesh"
	"github.com/danielpatrickdp/aka-qualia/internal/palette"
	"github.com/danielpatrickdp/aka-qualia/internal/pipeline"
	"github.com/danielpatrickdp/aka-qualia/internal/router"
)

// #region build

// buildPipeline wires a pipeline from cfg. The returned closer releases the
// mesh connection, remote hook and ledger; it is safe to call once.
func buildPipeline(cfg *config.Config, logger *zap.Logger) (*pipeline.Pipeline, func() error, error) {
	var closers []io.Closer
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	var consumer mesh.Consumer
	if cfg.RouterKind == router.KindMesh {
		c, err := mesh.NewGRPCConsumer(cfg.Mesh.Addr)
		if err != nil {
			return nil, nil, fmt.Errorf("mesh consumer: %w", err)
		}
		closers = append(closers, c)
		consumer = c
	}

	r, err := router.New(cfg.RouterKind, cfg.Router, consumer, logger)
	if err != nil {
		closeAll()
		return nil, nil, err
	}

	mapper := palette.Default()
	hook, err := feedback.New(cfg.Feedback, mapper, logger)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	if c, ok := hook.(io.Closer); ok {
		closers = append(closers, c)
	}

	var store *ledger.Store
	if cfg.Ledger.Path != "" {
		store, err = ledger.NewStore(cfg.Ledger.Path)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("open ledger: %w", err)
		}
		closers = append(closers, store)
	}

	p := pipeline.New(pipeline.Options{
		Router:           r,
		Feedback:         hook,
		Palette:          mapper,
		Ledger:           store,
		Logger:           logger,
		WeightedPriority: cfg.WeightedPriority,
		DefaultCulture:   cfg.Culture,
	})
	return p, closeAll, nil
}

// openLedger opens the ledger at path, falling back to the configured path.
func openLedger(path string, cfg *config.Config) (*ledger.Store, error) {
	if path == "" {
		path = cfg.Ledger.Path
	}
	if path == "" {
		return nil, errors.New("no ledger: pass --db or set ledger.path")
	}
	return ledger.NewStore(path)
}

// #endregion build
