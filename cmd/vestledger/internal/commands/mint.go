package commands

import (
	"context"
	"fmt"

	"github.com/gartstein/vestledger/internal/vesting/ledger"
	"go.uber.org/zap"
)

// MintCmd funds an account for local testing. The ledger file is locked
// while the server runs, so stop it first.
type MintCmd struct {
	ConfigFlags `embed:""`
	Token       string `arg:"" help:"token type"`
	Owner       string `arg:"" help:"account identity"`
	Amount      uint64 `arg:"" help:"amount in base units"`
}

func (m *MintCmd) Run(ctx context.Context, globals *Globals) error {
	logger, err := newLogger(globals)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer syncLogger(logger)

	cfg, err := m.load()
	if err != nil {
		return err
	}

	l, err := ledger.Open(cfg.LedgerPath, logger)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer l.Close()

	if err := l.Mint(ctx, m.Token, m.Owner, m.Amount); err != nil {
		return err
	}
	balance, err := l.Balance(ctx, m.Token, m.Owner)
	if err != nil {
		return err
	}
	logger.Info("Minted tokens",
		zap.String("token_type", m.Token),
		zap.String("owner", m.Owner),
		zap.Uint64("amount", m.Amount),
		zap.Uint64("balance", balance),
	)
	return nil
}
