// Package ledger is the token custody ledger backing vesting escrow. It keeps
// per-(token, owner) balances and escrow holdings in a bbolt file.
//
// A holding is opened by Deposit, which debits the depositor and returns a
// Holding capability. Only a caller presenting that capability can Withdraw.
package ledger

import (
	"context"
	"crypto/subtle"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	e "github.com/gartstein/vestledger/internal/vesting/errors"
	"github.com/google/uuid"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var (
	balancesBucket = []byte("balances")
	holdingsBucket = []byte("holdings")
)

// Holding is the capability over an escrow holding. Authority is a bearer
// secret; whoever stores the Holding controls the escrowed tokens.
type Holding struct {
	ID        string
	Authority string
}

type holdingRecord struct {
	Token     string    `json:"token"`
	Depositor string    `json:"depositor"`
	Authority string    `json:"authority"`
	Balance   uint64    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

type Ledger struct {
	db     *bbolt.DB
	logger *zap.Logger
}

// Open opens or creates the ledger file at path.
func Open(path string, logger *zap.Logger) (*Ledger, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{balancesBucket, holdingsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare ledger buckets: %w", err)
	}
	return &Ledger{db: db, logger: logger.Named("ledger")}, nil
}

func balanceKey(token, owner string) []byte {
	return []byte(token + "\x00" + owner)
}

func readAmount(b *bbolt.Bucket, key []byte) uint64 {
	v := b.Get(key)
	if len(v) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(v)
}

func writeAmount(b *bbolt.Bucket, key []byte, amount uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, amount)
	return b.Put(key, buf)
}

func credit(b *bbolt.Bucket, key []byte, amount uint64) error {
	current := readAmount(b, key)
	if current > math.MaxUint64-amount {
		return fmt.Errorf("%w: balance overflow", e.ErrInvalidInput)
	}
	return writeAmount(b, key, current+amount)
}

// Mint credits amount of token to owner.
func (l *Ledger) Mint(ctx context.Context, token, owner string, amount uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if token == "" || owner == "" || amount == 0 {
		return fmt.Errorf("%w: token, owner and a positive amount are required", e.ErrInvalidInput)
	}
	err := l.db.Update(func(tx *bbolt.Tx) error {
		return credit(tx.Bucket(balancesBucket), balanceKey(token, owner), amount)
	})
	if err != nil {
		return err
	}
	l.logger.Info("Minted tokens",
		zap.String("token", token),
		zap.String("owner", owner),
		zap.Uint64("amount", amount),
	)
	return nil
}

// Balance returns owner's balance of token.
func (l *Ledger) Balance(ctx context.Context, token, owner string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var amount uint64
	err := l.db.View(func(tx *bbolt.Tx) error {
		amount = readAmount(tx.Bucket(balancesBucket), balanceKey(token, owner))
		return nil
	})
	return amount, err
}

// Deposit moves amount of token from the depositor's balance into a new
// escrow holding.
func (l *Ledger) Deposit(ctx context.Context, token, from string, amount uint64) (Holding, error) {
	if err := ctx.Err(); err != nil {
		return Holding{}, err
	}
	if amount == 0 {
		return Holding{}, fmt.Errorf("%w: deposit amount must be positive", e.ErrInvalidInput)
	}
	holding := Holding{ID: uuid.NewString(), Authority: uuid.NewString()}

	err := l.db.Update(func(tx *bbolt.Tx) error {
		balances := tx.Bucket(balancesBucket)
		key := balanceKey(token, from)
		available := readAmount(balances, key)
		if available < amount {
			return fmt.Errorf("%w: %s holds %d %s, needs %d", e.ErrInsufficientTokens, from, available, token, amount)
		}
		if err := writeAmount(balances, key, available-amount); err != nil {
			return err
		}

		record, err := json.Marshal(holdingRecord{
			Token:     token,
			Depositor: from,
			Authority: holding.Authority,
			Balance:   amount,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		return tx.Bucket(holdingsBucket).Put([]byte(holding.ID), record)
	})
	if err != nil {
		return Holding{}, err
	}

	l.logger.Debug("Escrow deposit",
		zap.String("holding_id", holding.ID),
		zap.String("token", token),
		zap.Uint64("amount", amount),
	)
	return holding, nil
}

// Withdraw moves amount from the holding to the destination's balance. The
// presented capability must match the one issued by Deposit.
func (l *Ledger) Withdraw(ctx context.Context, holding Holding, amount uint64, to string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount == 0 || to == "" {
		return fmt.Errorf("%w: withdrawal needs a destination and a positive amount", e.ErrInvalidInput)
	}

	err := l.db.Update(func(tx *bbolt.Tx) error {
		holdings := tx.Bucket(holdingsBucket)
		raw := holdings.Get([]byte(holding.ID))
		if raw == nil {
			return e.ErrHoldingNotFound
		}
		var record holdingRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return err
		}
		if subtle.ConstantTimeCompare([]byte(record.Authority), []byte(holding.Authority)) != 1 {
			return e.ErrUnauthorizedEscrowAuthority
		}
		if record.Balance < amount {
			return fmt.Errorf("%w: holding has %d, needs %d", e.ErrInsufficientTokens, record.Balance, amount)
		}

		record.Balance -= amount
		updated, err := json.Marshal(record)
		if err != nil {
			return err
		}
		if err := holdings.Put([]byte(holding.ID), updated); err != nil {
			return err
		}
		return credit(tx.Bucket(balancesBucket), balanceKey(record.Token, to), amount)
	})
	if err != nil {
		return err
	}

	l.logger.Debug("Escrow withdrawal",
		zap.String("holding_id", holding.ID),
		zap.String("to", to),
		zap.Uint64("amount", amount),
	)
	return nil
}

// HoldingBalance returns the tokens left in a holding.
func (l *Ledger) HoldingBalance(ctx context.Context, holdingID string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var balance uint64
	err := l.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(holdingsBucket).Get([]byte(holdingID))
		if raw == nil {
			return e.ErrHoldingNotFound
		}
		var record holdingRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return err
		}
		balance = record.Balance
		return nil
	})
	return balance, err
}

func (l *Ledger) Close() error {
	return l.db.Close()
}
