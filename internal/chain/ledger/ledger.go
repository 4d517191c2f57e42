// Package ledger is an embedded anchoring ledger backed by badger.
//
// It enforces the same rules as the on-chain anchor contract: the owner
// manages the issuer allowlist, only allowlisted senders may issue, and a
// certificate id can be anchored once. State-changing calls are applied one
// at a time, each producing a new block with a single transaction.
package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"credchain/internal/chain"
	"credchain/internal/fingerprint"
)

const (
	opIssue     = "issue"
	opRead      = "read"
	opSetIssuer = "set_issuer"
)

var (
	keyHeight    = []byte("meta/height")
	prefixCert   = "cert/"
	prefixIssuer = "issuer/"
	prefixTx     = "tx/"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-f]{40}$`)

// Config selects storage and the identities the ledger acts for.
type Config struct {
	// Dir is the badger data directory. Empty runs in memory.
	Dir string
	// Network is reported by Network().
	Network string
	// Owner controls the issuer allowlist and is allowlisted at genesis.
	Owner string
	// Sender is the address state-changing calls are made from.
	Sender string
}

type Ledger struct {
	db      *badger.DB
	mu      sync.Mutex
	network string
	owner   string
	sender  string
	now     func() time.Time
	logger  *slog.Logger
}

type Option func(*Ledger)

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

type anchorRecord struct {
	Fingerprint string    `json:"fingerprint"`
	Issuer      string    `json:"issuer"`
	IssuedAt    time.Time `json:"issued_at"`
	TxHash      string    `json:"tx_hash"`
	Block       uint64    `json:"block"`
}

type txRecord struct {
	Hash      string    `json:"hash"`
	Block     uint64    `json:"block"`
	Method    string    `json:"method"`
	From      string    `json:"from"`
	Args      []string  `json:"args"`
	Timestamp time.Time `json:"timestamp"`
}

// Open creates or reopens a ledger.
func Open(cfg Config, opts ...Option) (*Ledger, error) {
	owner := normalizeAddress(cfg.Owner)
	if !addressPattern.MatchString(owner) {
		return nil, fmt.Errorf("ledger: invalid owner address %q", cfg.Owner)
	}
	sender := normalizeAddress(cfg.Sender)
	if sender == "" {
		sender = owner
	}
	if !addressPattern.MatchString(sender) {
		return nil, fmt.Errorf("ledger: invalid sender address %q", cfg.Sender)
	}

	l := &Ledger{
		network: cfg.Network,
		owner:   owner,
		sender:  sender,
		now:     time.Now,
		logger:  slog.Default(),
	}
	if l.network == "" {
		l.network = "local"
	}
	for _, opt := range opts {
		opt(l)
	}

	var badgerOpts badger.Options
	if cfg.Dir == "" {
		badgerOpts = badger.DefaultOptions("").
			WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("ledger: create data dir: %w", err)
		}
		badgerOpts = badger.DefaultOptions(cfg.Dir)
	}
	badgerOpts = badgerOpts.
		WithLogger(badgerLogger{l.logger}).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("ledger: open: %w", err)
	}
	l.db = db

	if err := l.genesis(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) Network() string {
	return l.network
}

// Height returns the number of blocks produced so far.
func (l *Ledger) Height() (uint64, error) {
	var height uint64
	err := l.db.View(func(txn *badger.Txn) error {
		var err error
		height, err = readHeight(txn)
		return err
	})
	return height, err
}

func (l *Ledger) genesis() error {
	return l.db.Update(func(txn *badger.Txn) error {
		height, err := readHeight(txn)
		if err != nil {
			return err
		}
		if height > 0 {
			return nil
		}
		return txn.Set(issuerKey(l.owner), []byte{1})
	})
}

func (l *Ledger) Issue(ctx context.Context, certificateID string, fp fingerprint.Fingerprint) (*chain.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, chain.Unavailable(opIssue, err)
	}
	if certificateID == "" {
		return nil, chain.Rejected(opIssue, chain.ReasonInvalidArgument, errors.New("empty certificate id"))
	}
	if fp.IsZero() {
		return nil, chain.Rejected(opIssue, chain.ReasonInvalidArgument, errors.New("zero fingerprint"))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var receipt *chain.Receipt
	err := l.db.Update(func(txn *badger.Txn) error {
		allowed, err := isIssuer(txn, l.sender)
		if err != nil {
			return err
		}
		if !allowed {
			return chain.Rejected(opIssue, chain.ReasonIssuerUnauthorized, nil)
		}

		_, err = txn.Get(certKey(certificateID))
		if err == nil {
			return chain.Rejected(opIssue, chain.ReasonDuplicateID, nil)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		tx, err := l.appendTx(txn, "issueCertificate", certificateID, fp.Hex0x())
		if err != nil {
			return err
		}
		record := anchorRecord{
			Fingerprint: fp.String(),
			Issuer:      l.sender,
			IssuedAt:    tx.Timestamp,
			TxHash:      tx.Hash,
			Block:       tx.Block,
		}
		if err := setJSON(txn, certKey(certificateID), record); err != nil {
			return err
		}
		receipt = &chain.Receipt{Reference: tx.Hash, BlockNumber: tx.Block}
		return nil
	})
	if err != nil {
		return nil, classify(opIssue, err)
	}

	l.logger.DebugContext(ctx, "ledger anchored certificate",
		"certificate_id", certificateID,
		"tx_hash", receipt.Reference,
		"block", receipt.BlockNumber,
	)
	return receipt, nil
}

func (l *Ledger) Read(ctx context.Context, certificateID string) (*chain.Anchor, error) {
	if err := ctx.Err(); err != nil {
		return nil, chain.Unavailable(opRead, err)
	}

	var record anchorRecord
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(certKey(certificateID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, chain.NotFound(opRead, certificateID)
	}
	if err != nil {
		return nil, classify(opRead, err)
	}

	return &chain.Anchor{
		CertificateID: certificateID,
		Fingerprint:   fingerprint.Fingerprint(record.Fingerprint),
		Issuer:        record.Issuer,
		IssuedAt:      record.IssuedAt,
	}, nil
}

func (l *Ledger) SetIssuerAuthorization(ctx context.Context, address string, allowed bool) (*chain.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, chain.Unavailable(opSetIssuer, err)
	}
	addr := normalizeAddress(address)
	if !addressPattern.MatchString(addr) {
		return nil, chain.Rejected(opSetIssuer, chain.ReasonInvalidArgument, fmt.Errorf("malformed address %q", address))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var receipt *chain.Receipt
	err := l.db.Update(func(txn *badger.Txn) error {
		if l.sender != l.owner {
			return chain.Rejected(opSetIssuer, chain.ReasonNotOwner, nil)
		}
		if allowed {
			if err := txn.Set(issuerKey(addr), []byte{1}); err != nil {
				return err
			}
		} else if err := txn.Delete(issuerKey(addr)); err != nil {
			return err
		}
		tx, err := l.appendTx(txn, "setIssuer", addr, fmt.Sprintf("%t", allowed))
		if err != nil {
			return err
		}
		receipt = &chain.Receipt{Reference: tx.Hash, BlockNumber: tx.Block}
		return nil
	})
	if err != nil {
		return nil, classify(opSetIssuer, err)
	}
	return receipt, nil
}

// IsIssuer reports whether address is on the issuer allowlist.
func (l *Ledger) IsIssuer(address string) (bool, error) {
	var allowed bool
	err := l.db.View(func(txn *badger.Txn) error {
		var err error
		allowed, err = isIssuer(txn, normalizeAddress(address))
		return err
	})
	return allowed, err
}

// appendTx advances the height and records the transaction in the new block.
func (l *Ledger) appendTx(txn *badger.Txn, method string, args ...string) (*txRecord, error) {
	height, err := readHeight(txn)
	if err != nil {
		return nil, err
	}
	height++

	h := sha256.New()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], height)
	h.Write(buf[:])
	h.Write([]byte(l.network))
	h.Write([]byte(l.sender))
	h.Write([]byte(method))
	for _, arg := range args {
		h.Write([]byte{0})
		h.Write([]byte(arg))
	}

	tx := &txRecord{
		Hash:      "0x" + hex.EncodeToString(h.Sum(nil)),
		Block:     height,
		Method:    method,
		From:      l.sender,
		Args:      args,
		Timestamp: l.now().UTC(),
	}
	if err := setJSON(txn, []byte(prefixTx+tx.Hash), tx); err != nil {
		return nil, err
	}
	if err := txn.Set(keyHeight, buf[:]); err != nil {
		return nil, err
	}
	return tx, nil
}

func readHeight(txn *badger.Txn) (uint64, error) {
	item, err := txn.Get(keyHeight)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var height uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("ledger: corrupt height record")
		}
		height = binary.BigEndian.Uint64(val)
		return nil
	})
	return height, err
}

func isIssuer(txn *badger.Txn, address string) (bool, error) {
	_, err := txn.Get(issuerKey(address))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

func classify(op string, err error) error {
	var ce *chain.Error
	if errors.As(err, &ce) {
		return ce
	}
	return chain.Unavailable(op, err)
}

func certKey(id string) []byte {
	return []byte(prefixCert + id)
}

func issuerKey(address string) []byte {
	return []byte(prefixIssuer + address)
}

func normalizeAddress(address string) string {
	address = strings.ToLower(strings.TrimSpace(address))
	if address != "" && !strings.HasPrefix(address, "0x") {
		address = "0x" + address
	}
	return address
}
