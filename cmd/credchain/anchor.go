package main

import (
	"context"
	"fmt"
	"log/slog"

	"credchain/internal/chain"
	"credchain/internal/chain/ethereum"
	"credchain/internal/chain/ledger"
	"credchain/internal/platform/config"
	"credchain/internal/platform/metrics"
	"credchain/pkg/platform/circuit"
)

// openAnchor connects the configured ledger backend and wraps it in a Guard.
// The returned func releases the backend.
func openAnchor(ctx context.Context, cfg config.ChainConfig, logger *slog.Logger, m *metrics.Metrics) (chain.AnchorClient, func(), error) {
	var (
		backend chain.AnchorClient
		release func()
	)
	switch cfg.Backend {
	case config.ChainBackendEthereum:
		c, err := ethereum.Dial(ctx, ethereum.Config{
			RPCURL:          cfg.RPCURL,
			PrivateKey:      cfg.PrivateKey,
			ContractAddress: cfg.ContractAddress,
			ChainID:         cfg.ChainID,
			Network:         cfg.Network,
			DialRetries:     cfg.DialRetries,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("dial ethereum: %w", err)
		}
		backend, release = c, c.Close
	case config.ChainBackendLedger:
		l, err := ledger.Open(ledger.Config{
			Dir:     cfg.LedgerDir,
			Network: cfg.Network,
			Owner:   cfg.LedgerOwner,
		}, ledger.WithLogger(logger))
		if err != nil {
			return nil, nil, fmt.Errorf("open ledger: %w", err)
		}
		backend, release = l, func() { _ = l.Close() }
		if cfg.LedgerDir == "" {
			logger.WarnContext(ctx, "embedded ledger is in memory; anchors are lost on restart")
		}
	default:
		return nil, nil, fmt.Errorf("unknown chain backend %q", cfg.Backend)
	}

	breaker := circuit.New("chain",
		circuit.WithFailureThreshold(cfg.BreakerFailures),
		circuit.WithCooldown(cfg.BreakerCooldown),
	)
	guarded := chain.NewGuard(backend,
		chain.WithTimeout(cfg.CallTimeout),
		chain.WithBreaker(breaker),
		chain.WithLogger(logger),
		chain.WithMetrics(m),
	)
	logger.InfoContext(ctx, "ledger ready", "backend", cfg.Backend, "network", guarded.Network())
	return guarded, release, nil
}
