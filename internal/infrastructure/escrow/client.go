// Package escrow is the HTTP client for the external escrow service.
// The engagement core never moves funds itself: hold, release, and
// refund are instructions to the collaborator, keyed by job id so a
// retried call is idempotent on the escrow side.
package escrow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Devansh-g1/CryptoGig/internal/api/metrics"
	"github.com/Devansh-g1/CryptoGig/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

type escrowRequest struct {
	JobID         string  `json:"job_id"`
	WalletAddress string  `json:"wallet_address,omitempty"`
	ClientID      string  `json:"client_id,omitempty"`
	AmountUSDC    float64 `json:"amount_usdc"`
}

// Hold instructs escrow to lock the client's funds for the job.
func (c *Client) Hold(ctx context.Context, jobID, clientID string, amount float64) error {
	return c.post(ctx, "hold", escrowRequest{JobID: jobID, ClientID: clientID, AmountUSDC: amount})
}

// Release instructs escrow to pay the held amount out to the freelancer.
func (c *Client) Release(ctx context.Context, jobID, walletAddress string, amount float64) error {
	return c.post(ctx, "release", escrowRequest{JobID: jobID, WalletAddress: walletAddress, AmountUSDC: amount})
}

// Refund instructs escrow to return the held amount to the client.
func (c *Client) Refund(ctx context.Context, jobID, walletAddress string, amount float64) error {
	return c.post(ctx, "refund", escrowRequest{JobID: jobID, WalletAddress: walletAddress, AmountUSDC: amount})
}

// post sends one escrow instruction. Any transport error, timeout, or
// non-2xx response maps to domain.ErrEscrowUnavailable so callers leave
// the job state untouched and let the client retry.
func (c *Client) post(ctx context.Context, op string, payload escrowRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal escrow request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+op, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build escrow request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		metrics.EscrowCallsTotal.WithLabelValues(op, "error").Inc()
		c.log.Error().Err(err).Str("op", op).Str("job_id", payload.JobID).Msg("escrow call failed")
		return fmt.Errorf("%w: %s: %v", domain.ErrEscrowUnavailable, op, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		metrics.EscrowCallsTotal.WithLabelValues(op, "error").Inc()
		c.log.Error().Int("status", res.StatusCode).Str("op", op).Str("job_id", payload.JobID).Msg("escrow rejected call")
		return fmt.Errorf("%w: %s returned %d: %s", domain.ErrEscrowUnavailable, op, res.StatusCode, snippet)
	}

	metrics.EscrowCallsTotal.WithLabelValues(op, "ok").Inc()
	c.log.Info().Str("op", op).Str("job_id", payload.JobID).Float64("amount", payload.AmountUSDC).Msg("escrow call succeeded")
	return nil
}
