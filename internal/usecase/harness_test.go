package usecase

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/covault-org/covault-cli/internal/domain"
	"github.com/covault-org/covault-cli/internal/domain/models"
	"github.com/covault-org/covault-cli/internal/safe"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory LifecycleStore with the same per-key update
// semantics as the persistent one.
type memStore struct {
	mu          sync.Mutex
	accounts    map[string]*models.Account
	txs         map[string]*models.PendingTransaction
	deployments map[string]*models.DeploymentRecord
	selected    uint64
}

func newMemStore() *memStore {
	return &memStore{
		accounts:    map[string]*models.Account{},
		txs:         map[string]*models.PendingTransaction{},
		deployments: map[string]*models.DeploymentRecord{},
	}
}

func cloneVia[T any](src *T) *T {
	raw, err := json.Marshal(src)
	if err != nil {
		panic(err)
	}
	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		panic(err)
	}
	return out
}

func (s *memStore) GetAccount(_ context.Context, chainID uint64, address string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[models.AccountID(chainID, address)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneVia(account), nil
}

func (s *memStore) SaveAccount(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := cloneVia(account)
	saved.Revision++
	s.accounts[saved.ID()] = saved
	return nil
}

func (s *memStore) ListAccounts(_ context.Context) ([]*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, cloneVia(a))
	}
	return out, nil
}

func (s *memStore) GetTransaction(_ context.Context, safeTxHash string) (*models.PendingTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[safeTxHash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneVia(tx), nil
}

func (s *memStore) PutTransaction(_ context.Context, tx *models.PendingTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[tx.SafeTxHash]; ok {
		return domain.ErrAlreadyExists
	}
	saved := cloneVia(tx)
	saved.Revision = 1
	s.txs[tx.SafeTxHash] = saved
	return nil
}

func (s *memStore) UpdateTransaction(_ context.Context, safeTxHash string, mutate func(*models.PendingTransaction) error) (*models.PendingTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[safeTxHash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	draft := cloneVia(tx)
	if err := mutate(draft); err != nil {
		return nil, err
	}
	draft.Revision++
	s.txs[safeTxHash] = draft
	return cloneVia(draft), nil
}

func (s *memStore) ListTransactions(_ context.Context, chainID uint64, safeAddress string) ([]*models.PendingTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.PendingTransaction
	for _, tx := range s.txs {
		if tx.ChainID == chainID && tx.SafeAddress == safeAddress {
			out = append(out, cloneVia(tx))
		}
	}
	return out, nil
}

func (s *memStore) GetDeployment(_ context.Context, id string) (*models.DeploymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.deployments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneVia(record), nil
}

func (s *memStore) SaveDeployment(_ context.Context, record *models.DeploymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := cloneVia(record)
	saved.Revision++
	s.deployments[saved.ID] = saved
	return nil
}

func (s *memStore) UpdateDeployment(_ context.Context, id string, mutate func(*models.DeploymentRecord) error) (*models.DeploymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.deployments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	draft := cloneVia(record)
	if err := mutate(draft); err != nil {
		return nil, err
	}
	draft.Revision++
	s.deployments[id] = draft
	return cloneVia(draft), nil
}

func (s *memStore) DeleteDeployment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deployments, id)
	return nil
}

func (s *memStore) SelectedChain(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, nil
}

func (s *memStore) SetSelectedChain(_ context.Context, chainID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = chainID
	return nil
}

// fakeChain answers provider calls from canned values.
type fakeChain struct {
	chainID      uint64
	blockNumber  uint64
	senderNonce  uint64
	accountNonce uint64

	callContract func(to common.Address, data []byte) ([]byte, error)

	estimateErr error
	pricingErr  error
	sendErr     error
	sent        []*types.Transaction

	receipt    *types.Receipt
	receiptErr error
	waitErr    error
}

func (c *fakeChain) ChainID(context.Context) (uint64, error)     { return c.chainID, nil }
func (c *fakeChain) BlockNumber(context.Context) (uint64, error) { return c.blockNumber, nil }
func (c *fakeChain) NonceAt(context.Context, common.Address) (uint64, error) {
	return c.senderNonce, nil
}
func (c *fakeChain) CodeAt(context.Context, common.Address) ([]byte, error) {
	return []byte{0x60, 0x80}, nil
}
func (c *fakeChain) StorageAt(context.Context, common.Address, common.Hash) ([]byte, error) {
	return common.LeftPadBytes([]byte{0x01}, 32), nil
}

func (c *fakeChain) CallContract(_ context.Context, to common.Address, data []byte) ([]byte, error) {
	if c.callContract != nil {
		return c.callContract(to, data)
	}
	// Default: answer the account nonce view call.
	return common.LeftPadBytes(new(big.Int).SetUint64(c.accountNonce).Bytes(), 32), nil
}

func (c *fakeChain) EstimateGas(context.Context, common.Address, *common.Address, *big.Int, []byte) (uint64, error) {
	if c.estimateErr != nil {
		return 0, c.estimateErr
	}
	return 150_000, nil
}

func (c *fakeChain) SuggestPricing(context.Context) (*GasQuote, error) {
	if c.pricingErr != nil {
		return nil, c.pricingErr
	}
	return &GasQuote{
		MaxFeePerGas:         big.NewInt(30_000_000_000),
		MaxPriorityFeePerGas: big.NewInt(1_000_000_000),
	}, nil
}

func (c *fakeChain) SendTransaction(_ context.Context, tx *types.Transaction) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, tx)
	return nil
}

func (c *fakeChain) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	if c.receiptErr != nil {
		return nil, c.receiptErr
	}
	if c.receipt == nil {
		return nil, domain.ErrNotFound
	}
	return c.receipt, nil
}

func (c *fakeChain) WaitForReceipt(context.Context, common.Hash, common.Address, uint64, time.Duration) (*types.Receipt, error) {
	if c.waitErr != nil {
		return nil, c.waitErr
	}
	return c.receipt, nil
}

// fakeSigner signs with a real in-memory key so recovery round-trips.
type fakeSigner struct {
	key *ecdsa.PrivateKey

	digestErr error
	msgErr    error
	txErr     error
}

func newFakeSigner(t *testing.T) *fakeSigner {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &fakeSigner{key: key}
}

func (s *fakeSigner) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

func (s *fakeSigner) SignDigest(_ context.Context, digest common.Hash) ([]byte, error) {
	if s.digestErr != nil {
		return nil, s.digestErr
	}
	sig, err := crypto.Sign(digest.Bytes(), s.key)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}

func (s *fakeSigner) SignMessage(_ context.Context, digest common.Hash) ([]byte, error) {
	if s.msgErr != nil {
		return nil, s.msgErr
	}
	sig, err := crypto.Sign(accounts.TextHash(digest.Bytes()), s.key)
	if err != nil {
		return nil, err
	}
	sig[64] += 31
	return sig, nil
}

func (s *fakeSigner) SignTx(_ context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if s.txErr != nil {
		return nil, s.txErr
	}
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}

// recordingBus captures published events in order.
type recordingBus struct {
	mu     sync.Mutex
	events []domain.Event
}

func (b *recordingBus) Publish(event domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) Subscribe(int) (<-chan domain.Event, func()) {
	ch := make(chan domain.Event)
	close(ch)
	return ch, func() {}
}

func (b *recordingBus) types() []domain.EventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.EventType, len(b.events))
	for i, e := range b.events {
		out[i] = e.Type
	}
	return out
}

// fakeSource serves canned remote confirmations.
type fakeSource struct {
	rows []RemoteConfirmation
	err  error
}

func (s *fakeSource) Confirmations(context.Context, string) ([]RemoteConfirmation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

// testSession builds a 2-of-3 session whose first owner is the given signer.
func testSession(t *testing.T, chainID uint64, threshold int, signers ...*fakeSigner) *Session {
	t.Helper()
	owners := make([]string, 0, len(signers))
	for _, s := range signers {
		owners = append(owners, s.Address().Hex())
	}
	account := &models.Account{
		ChainID:   chainID,
		Address:   "0x2222222222222222222222222222222222222222",
		Owners:    owners,
		Threshold: threshold,
		Version:   "1.3.0",
	}
	session, err := NewSession(account, safe.DefaultDeployments())
	require.NoError(t, err)
	return session
}

// seedTransaction stores a pending transaction with a real hash for the
// session and returns it.
func seedTransaction(t *testing.T, store *memStore, session *Session, nonce uint64) *models.PendingTransaction {
	t.Helper()
	desc := models.TransactionDescriptor{
		To:             "0x9999999999999999999999999999999999999999",
		Value:          "1000",
		Data:           "0x",
		Operation:      models.OperationCall,
		SafeTxGas:      "0",
		BaseGas:        "0",
		GasPrice:       "0",
		GasToken:       (common.Address{}).Hex(),
		RefundReceiver: (common.Address{}).Hex(),
		Nonce:          nonce,
	}
	hash, err := safe.TransactionHash(session.ChainID, session.SafeAddress, &desc)
	require.NoError(t, err)
	tx := &models.PendingTransaction{
		SafeTxHash:  hash.Hex(),
		SafeAddress: session.Account.Address,
		ChainID:     session.ChainID,
		Descriptor:  desc,
		Signatures:  models.SignatureSet{},
		Status:      models.StatusAwaitingSignature,
		ProposedAt:  time.Now().UTC(),
	}
	require.NoError(t, store.PutTransaction(context.Background(), tx))
	return tx
}

// ownerSignature produces a typed-data signature over the transaction hash.
func ownerSignature(t *testing.T, signer *fakeSigner, safeTxHash string) string {
	t.Helper()
	sig, err := signer.SignDigest(context.Background(), common.HexToHash(safeTxHash))
	require.NoError(t, err)
	return fmt.Sprintf("0x%x", sig)
}
