package txservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/covault-org/covault-cli/internal/domain"
	"github.com/covault-org/covault-cli/internal/usecase"
)

// ServiceURLs maps chain ids to their hosted transaction indexing service.
var ServiceURLs = map[uint64]string{
	1:        "https://safe-transaction-mainnet.safe.global",
	10:       "https://safe-transaction-optimism.safe.global",
	100:      "https://safe-transaction-gnosis-chain.safe.global",
	137:      "https://safe-transaction-polygon.safe.global",
	42161:    "https://safe-transaction-arbitrum.safe.global",
	11155111: "https://safe-transaction-sepolia.safe.global",
	8453:     "https://safe-transaction-base.safe.global",
	56:       "https://safe-transaction-bsc.safe.global",
	43114:    "https://safe-transaction-avalanche.safe.global",
	42220:    "https://safe-transaction-celo.safe.global",
}

// confirmation is one signed approval row as the service returns it.
type confirmation struct {
	Owner          string    `json:"owner"`
	SubmissionDate time.Time `json:"submissionDate"`
	Signature      string    `json:"signature"`
	SignatureType  string    `json:"signatureType"`
}

type multisigTransaction struct {
	SafeTxHash    string         `json:"safeTxHash"`
	IsExecuted    bool           `json:"isExecuted"`
	Confirmations []confirmation `json:"confirmations"`
}

// Client fetches confirmations collected by the hosted indexing service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a service client for the chain, or an error when the
// chain has no hosted service.
func NewClient(chainID uint64, log *slog.Logger) (*Client, error) {
	baseURL, ok := ServiceURLs[chainID]
	if !ok {
		return nil, fmt.Errorf("no transaction service for chain %d", chainID)
	}
	return NewClientWithURL(baseURL, log), nil
}

// NewClientWithURL creates a client against an explicit service endpoint.
func NewClientWithURL(baseURL string, log *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

// Confirmations returns the signed approvals the service knows for the hash.
func (c *Client) Confirmations(ctx context.Context, safeTxHash string) ([]usecase.RemoteConfirmation, error) {
	url := fmt.Sprintf("%s/api/v1/multisig-transactions/%s/", c.baseURL, safeTxHash)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.log.Debug("fetching confirmations", "url", url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query transaction service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read service response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: transaction %s not indexed", domain.ErrNotFound, safeTxHash)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transaction service status %d: %s", resp.StatusCode, string(body))
	}

	var tx multisigTransaction
	if err := json.Unmarshal(body, &tx); err != nil {
		return nil, fmt.Errorf("decode service response: %w", err)
	}

	out := make([]usecase.RemoteConfirmation, 0, len(tx.Confirmations))
	for _, conf := range tx.Confirmations {
		out = append(out, usecase.RemoteConfirmation{
			Signer:    conf.Owner,
			Signature: conf.Signature,
		})
	}
	return out, nil
}

var _ usecase.ConfirmationSource = (*Client)(nil)
