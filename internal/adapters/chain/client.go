package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/covault-org/covault-cli/internal/domain"
	"github.com/covault-org/covault-cli/internal/usecase"
)

// defaultPollInterval is how often the receipt wait re-checks the chain.
const defaultPollInterval = 4 * time.Second

// maxReplacementScan bounds how many blocks the replacement search walks
// back when no start block was recorded.
const maxReplacementScan = 256

// Client adapts go-ethereum's ethclient to the engine's provider interface.
// The connection is established lazily on first use so commands that never
// touch the chain work without an endpoint.
type Client struct {
	rpcURL       string
	expectedID   uint64
	pollInterval time.Duration
	log          *slog.Logger

	mu      sync.Mutex
	rpc     *ethclient.Client
	chainID uint64
}

// New creates a client for the RPC endpoint. A zero expected chain id
// accepts whatever the node reports on first connect.
func New(rpcURL string, expectedChainID uint64, log *slog.Logger) *Client {
	return &Client{
		rpcURL:       rpcURL,
		expectedID:   expectedChainID,
		pollInterval: defaultPollInterval,
		log:          log,
	}
}

// ensure dials and verifies the chain id once.
func (c *Client) ensure(ctx context.Context) (*ethclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rpc != nil {
		return c.rpc, nil
	}
	if c.rpcURL == "" {
		return nil, fmt.Errorf("no RPC endpoint configured: pass --network or set COVAULT_RPC_URL")
	}
	rpc, err := ethclient.DialContext(ctx, c.rpcURL)
	if err != nil {
		return nil, fmt.Errorf("connect to RPC: %w", err)
	}
	networkID, err := rpc.ChainID(ctx)
	if err != nil {
		rpc.Close()
		return nil, fmt.Errorf("read chain id: %w", err)
	}
	if c.expectedID != 0 && networkID.Uint64() != c.expectedID {
		rpc.Close()
		return nil, fmt.Errorf("chain id mismatch: expected %d, got %d", c.expectedID, networkID.Uint64())
	}
	c.rpc = rpc
	c.chainID = networkID.Uint64()
	return rpc, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rpc != nil {
		c.rpc.Close()
		c.rpc = nil
	}
}

func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	if _, err := c.ensure(ctx); err != nil {
		return 0, err
	}
	return c.chainID, nil
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	rpc, err := c.ensure(ctx)
	if err != nil {
		return 0, err
	}
	return rpc.BlockNumber(ctx)
}

func (c *Client) NonceAt(ctx context.Context, account common.Address) (uint64, error) {
	rpc, err := c.ensure(ctx)
	if err != nil {
		return 0, err
	}
	return rpc.PendingNonceAt(ctx, account)
}

func (c *Client) CodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	rpc, err := c.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return rpc.CodeAt(ctx, account, nil)
}

func (c *Client) StorageAt(ctx context.Context, account common.Address, slot common.Hash) ([]byte, error) {
	rpc, err := c.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return rpc.StorageAt(ctx, account, slot, nil)
}

func (c *Client) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	rpc, err := c.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return rpc.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
}

func (c *Client) EstimateGas(ctx context.Context, from common.Address, to *common.Address, value *big.Int, data []byte) (uint64, error) {
	rpc, err := c.ensure(ctx)
	if err != nil {
		return 0, err
	}
	return rpc.EstimateGas(ctx, ethereum.CallMsg{From: from, To: to, Value: value, Data: data})
}

// SuggestPricing quotes EIP-1559 fees when the chain has a base fee,
// otherwise a legacy gas price.
func (c *Client) SuggestPricing(ctx context.Context) (*usecase.GasQuote, error) {
	rpc, err := c.ensure(ctx)
	if err != nil {
		return nil, err
	}
	head, err := rpc.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("read head: %w", err)
	}
	if head.BaseFee == nil {
		price, err := rpc.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("gas price: %w", err)
		}
		return &usecase.GasQuote{GasPrice: price}, nil
	}
	tip, err := rpc.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("gas tip cap: %w", err)
	}
	// Fee cap covers a doubling of the base fee plus the tip.
	feeCap := new(big.Int).Add(new(big.Int).Mul(head.BaseFee, big.NewInt(2)), tip)
	return &usecase.GasQuote{MaxFeePerGas: feeCap, MaxPriorityFeePerGas: tip}, nil
}

func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	rpc, err := c.ensure(ctx)
	if err != nil {
		return err
	}
	return rpc.SendTransaction(ctx, tx)
}

func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	rpc, err := c.ensure(ctx)
	if err != nil {
		return nil, err
	}
	receipt, err := rpc.TransactionReceipt(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, fmt.Errorf("%w: receipt for %s", domain.ErrNotFound, txHash.Hex())
	}
	return receipt, err
}

// WaitForReceipt polls until the transaction has one confirmation, the
// bounded wait expires, or a replacement for its nonce is detected.
func (c *Client) WaitForReceipt(ctx context.Context, txHash common.Hash, from common.Address, startBlock uint64, timeout time.Duration) (*types.Receipt, error) {
	rpc, err := c.ensure(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// The original transaction's nonce anchors replacement detection. It can
	// be unavailable when the node already dropped the transaction; detection
	// then degrades to a plain timeout.
	var origTx *types.Transaction
	if tx, _, err := rpc.TransactionByHash(ctx, txHash); err == nil {
		origTx = tx
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := rpc.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			c.log.Debug("receipt poll failed", "txHash", txHash.Hex(), "err", err)
		}

		if origTx != nil {
			if replaced, rerr := c.checkReplaced(ctx, txHash, from, origTx, startBlock); rerr == nil && replaced != nil {
				return nil, replaced
			}
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: no confirmation for %s within %s",
					domain.ErrNetworkTimeout, txHash.Hex(), timeout)
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// checkReplaced reports whether another transaction from the same sender was
// mined at the watched nonce. Classification is best-effort: a replacement
// carrying the same call is a repricing, anything else a cancellation.
func (c *Client) checkReplaced(ctx context.Context, txHash common.Hash, from common.Address, origTx *types.Transaction, startBlock uint64) (*domain.ReplacedError, error) {
	rpc, err := c.ensure(ctx)
	if err != nil {
		return nil, err
	}
	minedNonce, err := rpc.NonceAt(ctx, from, nil)
	if err != nil {
		return nil, err
	}
	if minedNonce <= origTx.Nonce() {
		return nil, nil
	}

	// The nonce advanced without our receipt: some other transaction won it.
	replacement, err := c.findByNonce(ctx, from, origTx.Nonce(), startBlock)
	if err != nil || replacement == nil {
		// Could not locate the winner; report a cancellation with no
		// replacement hash rather than guessing.
		return &domain.ReplacedError{Reason: domain.ReplacementCancelled}, nil
	}
	if replacement.Hash() == txHash {
		return nil, nil
	}

	reason := domain.ReplacementCancelled
	if sameCall(origTx, replacement) {
		reason = domain.ReplacementRepriced
	}
	c.log.Info("transaction replaced",
		"txHash", txHash.Hex(), "replacement", replacement.Hash().Hex(), "reason", reason)
	return &domain.ReplacedError{Reason: reason, Replacement: replacement.Hash().Hex()}, nil
}

// findByNonce scans recent blocks for the sender's transaction at nonce.
func (c *Client) findByNonce(ctx context.Context, from common.Address, nonce uint64, startBlock uint64) (*types.Transaction, error) {
	rpc, err := c.ensure(ctx)
	if err != nil {
		return nil, err
	}
	head, err := rpc.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}
	low := startBlock
	if low == 0 || head-low > maxReplacementScan {
		if head > maxReplacementScan {
			low = head - maxReplacementScan
		} else {
			low = 0
		}
	}
	signer := types.LatestSignerForChainID(new(big.Int).SetUint64(c.chainID))
	for n := head; n >= low; n-- {
		block, err := rpc.BlockByNumber(ctx, new(big.Int).SetUint64(n))
		if err != nil {
			return nil, err
		}
		for _, tx := range block.Transactions() {
			if tx.Nonce() != nonce {
				continue
			}
			sender, err := types.Sender(signer, tx)
			if err != nil {
				continue
			}
			if sender == from {
				return tx, nil
			}
		}
		if n == 0 {
			break
		}
	}
	return nil, nil
}

// sameCall reports whether two transactions target the same contract with
// the same calldata and value.
func sameCall(a, b *types.Transaction) bool {
	if (a.To() == nil) != (b.To() == nil) {
		return false
	}
	if a.To() != nil && *a.To() != *b.To() {
		return false
	}
	if a.Value().Cmp(b.Value()) != 0 {
		return false
	}
	return string(a.Data()) == string(b.Data())
}

var _ usecase.ChainClient = (*Client)(nil)
