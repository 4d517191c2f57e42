// Package ethereum anchors certificate fingerprints on an EVM network through
// JSON-RPC.
package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"credchain/internal/chain"
	"credchain/internal/fingerprint"
)

const (
	opIssue     = "issue"
	opRead      = "read"
	opSetIssuer = "set_issuer"
	opDial      = "dial"
)

type Config struct {
	RPCURL          string
	PrivateKey      string
	ContractAddress string
	// ChainID, when non-zero, must match the id reported by the node.
	ChainID int64
	Network string
	// DialRetries bounds connection attempts at startup.
	DialRetries uint64
}

// Client implements chain.AnchorClient against a deployed anchor contract.
// Transactions are signed with a single service key and sent one at a time
// so nonces are assigned in order.
type Client struct {
	rpc      *ethclient.Client
	contract *bind.BoundContract
	key      *ecdsa.PrivateKey
	from     common.Address
	chainID  *big.Int
	network  string
	logger   *slog.Logger

	mu sync.Mutex
}

// Dial connects to the node, retrying with exponential backoff, and binds
// the contract.
func Dial(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	parsed, err := abi.JSON(strings.NewReader(anchorABI))
	if err != nil {
		return nil, fmt.Errorf("parse anchor abi: %w", err)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.ContractAddress)
	}

	var rpc *ethclient.Client
	var chainID *big.Int
	connect := func() error {
		c, err := ethclient.DialContext(ctx, cfg.RPCURL)
		if err != nil {
			return err
		}
		id, err := c.ChainID(ctx)
		if err != nil {
			c.Close()
			return err
		}
		rpc, chainID = c, id
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), cfg.DialRetries), ctx)
	err = backoff.RetryNotify(connect, policy, func(err error, wait time.Duration) {
		logger.WarnContext(ctx, "ethereum node unreachable, retrying",
			"rpc_url", cfg.RPCURL,
			"retry_in", wait,
			"error", err,
		)
	})
	if err != nil {
		return nil, chain.Unavailable(opDial, err)
	}
	if cfg.ChainID != 0 && chainID.Int64() != cfg.ChainID {
		rpc.Close()
		return nil, fmt.Errorf("chain id mismatch: node reports %s, configured %d", chainID, cfg.ChainID)
	}

	network := cfg.Network
	if network == "" {
		network = "evm-" + chainID.String()
	}
	address := common.HexToAddress(cfg.ContractAddress)
	from := crypto.PubkeyToAddress(key.PublicKey)

	logger.InfoContext(ctx, "connected to ethereum node",
		"network", network,
		"chain_id", chainID.String(),
		"contract", address.Hex(),
		"sender", from.Hex(),
	)

	return &Client{
		rpc:      rpc,
		contract: bind.NewBoundContract(address, parsed, rpc, rpc, rpc),
		key:      key,
		from:     from,
		chainID:  chainID,
		network:  network,
		logger:   logger,
	}, nil
}

func (c *Client) Close() {
	c.rpc.Close()
}

func (c *Client) Network() string {
	return c.network
}

// Sender is the address transactions are signed with.
func (c *Client) Sender() string {
	return c.from.Hex()
}

func (c *Client) Issue(ctx context.Context, certificateID string, fp fingerprint.Fingerprint) (*chain.Receipt, error) {
	return c.transact(ctx, opIssue, "issueCertificate", certificateID, fp.Bytes32())
}

func (c *Client) SetIssuerAuthorization(ctx context.Context, address string, allowed bool) (*chain.Receipt, error) {
	if !common.IsHexAddress(address) {
		return nil, chain.Rejected(opSetIssuer, chain.ReasonInvalidArgument, fmt.Errorf("malformed address %q", address))
	}
	return c.transact(ctx, opSetIssuer, "setIssuer", common.HexToAddress(address), allowed)
}

func (c *Client) Read(ctx context.Context, certificateID string) (*chain.Anchor, error) {
	var out []any
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getCertificate", certificateID); err != nil {
		return nil, classify(opRead, err)
	}
	if len(out) != 3 {
		return nil, chain.Unavailable(opRead, fmt.Errorf("unexpected getCertificate result arity %d", len(out)))
	}

	hash := *abi.ConvertType(out[0], new([32]byte)).(*[32]byte)
	issuer := *abi.ConvertType(out[1], new(common.Address)).(*common.Address)
	issuedAt := *abi.ConvertType(out[2], new(*big.Int)).(**big.Int)

	if hash == [32]byte{} {
		return nil, chain.NotFound(opRead, certificateID)
	}
	anchor := &chain.Anchor{
		CertificateID: certificateID,
		Fingerprint:   fingerprint.FromBytes32(hash),
		Issuer:        strings.ToLower(issuer.Hex()),
	}
	if issuedAt != nil && issuedAt.IsInt64() {
		anchor.IssuedAt = time.Unix(issuedAt.Int64(), 0).UTC()
	}
	return anchor, nil
}

func (c *Client) transact(ctx context.Context, op, method string, args ...any) (*chain.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, chain.Unavailable(op, err)
	}
	opts.Context = ctx

	tx, err := c.contract.Transact(opts, method, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	c.logger.DebugContext(ctx, "ethereum transaction sent", "method", method, "tx_hash", tx.Hash().Hex())

	receipt, err := bind.WaitMined(ctx, c.rpc, tx)
	if err != nil {
		return nil, chain.Unavailable(op, fmt.Errorf("await inclusion of %s: %w", tx.Hash().Hex(), err))
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, chain.Rejected(op, chain.ReasonReverted, fmt.Errorf("transaction %s reverted", tx.Hash().Hex()))
	}
	return &chain.Receipt{
		Reference:   tx.Hash().Hex(),
		BlockNumber: receipt.BlockNumber.Uint64(),
	}, nil
}

// classify maps node errors onto the chain taxonomy. Reverts surface during
// gas estimation or eth_call with "execution reverted" and an optional reason.
func classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return chain.Unavailable(op, err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "execution reverted") || strings.Contains(msg, "vm exception") {
		return chain.Rejected(op, revertReason(msg), err)
	}
	return chain.Unavailable(op, err)
}

func revertReason(msg string) string {
	switch {
	case strings.Contains(msg, "exist"), strings.Contains(msg, "already"), strings.Contains(msg, "duplicate"):
		return chain.ReasonDuplicateID
	case strings.Contains(msg, "owner"):
		return chain.ReasonNotOwner
	case strings.Contains(msg, "issuer"), strings.Contains(msg, "authori"):
		return chain.ReasonIssuerUnauthorized
	default:
		return chain.ReasonReverted
	}
}
