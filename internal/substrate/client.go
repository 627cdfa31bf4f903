// Package substrate is the online side of the signer: it talks to a node to
// collect what the offline side needs and to submit what it produced.
package substrate

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	gsrpc "github.com/centrifuge/go-substrate-rpc-client/v4"
	"github.com/sirupsen/logrus"

	"airgap/internal/codec"
	"airgap/internal/metadata"
	"airgap/internal/txrequest"
)

// Config holds the configuration for the Substrate client
type Config struct {
	// WebSocket endpoint URL (e.g. "ws://127.0.0.1:9944")
	Endpoint string

	// Timeout bounds every RPC round trip
	Timeout time.Duration
}

// RPC is the JSON-RPC surface the client needs.
type RPC interface {
	Call(result interface{}, method string, args ...interface{}) error
	Close()
}

// Client manages the connection to a Substrate node
type Client struct {
	mu sync.RWMutex

	rpc    RPC
	config Config
	log    logrus.FieldLogger

	// Connection state
	connected bool
}

// NewClient connects to the configured endpoint
func NewClient(config Config, log logrus.FieldLogger) (*Client, error) {
	api, err := gsrpc.NewSubstrateAPI(config.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create substrate API: %w", err)
	}
	return NewClientWithRPC(api.Client, config, log), nil
}

// NewClientWithRPC wraps an existing RPC connection
func NewClientWithRPC(rpc RPC, config Config, log logrus.FieldLogger) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Client{
		rpc:       rpc,
		config:    config,
		log:       log.WithField("endpoint", config.Endpoint),
		connected: true,
	}
}

// Close closes the connection to the Substrate node
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.rpc.Close()
		c.connected = false
	}
	return nil
}

// call runs one RPC request, giving up when ctx is done or the timeout passes.
func (c *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	c.mu.RLock()
	connected := c.connected
	c.mu.RUnlock()
	if !connected {
		return fmt.Errorf("client not connected")
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- c.rpc.Call(result, method, args...)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%s: %w", method, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", method, ctx.Err())
	}
}

type runtimeVersion struct {
	SpecName           string `json:"specName"`
	SpecVersion        uint32 `json:"specVersion"`
	TransactionVersion uint32 `json:"transactionVersion"`
}

type header struct {
	Number string `json:"number"`
}

// FetchBundle collects metadata, genesis, runtime version and a finalized
// checkpoint. When account is set, its next nonce is included.
func (c *Client) FetchBundle(ctx context.Context, runtimeName, account string) (*txrequest.Bundle, error) {
	var genesis string
	if err := c.call(ctx, &genesis, "chain_getBlockHash", 0); err != nil {
		return nil, fmt.Errorf("getting genesis hash: %w", err)
	}

	var rv runtimeVersion
	if err := c.call(ctx, &rv, "state_getRuntimeVersion"); err != nil {
		return nil, fmt.Errorf("getting runtime version: %w", err)
	}

	var finalized string
	if err := c.call(ctx, &finalized, "chain_getFinalizedHead"); err != nil {
		return nil, fmt.Errorf("getting finalized head: %w", err)
	}
	var head header
	if err := c.call(ctx, &head, "chain_getHeader", finalized); err != nil {
		return nil, fmt.Errorf("getting finalized header: %w", err)
	}
	number, err := parseBlockNumber(head.Number)
	if err != nil {
		return nil, err
	}

	var meta string
	if err := c.call(ctx, &meta, "state_getMetadata"); err != nil {
		return nil, fmt.Errorf("getting metadata: %w", err)
	}
	if _, err := metadata.DecodeHex(meta); err != nil {
		return nil, fmt.Errorf("node metadata is not usable offline: %w", err)
	}

	bundle := &txrequest.Bundle{
		Format:             txrequest.BundleFormat,
		Runtime:            runtimeName,
		GenesisHash:        genesis,
		SpecVersion:        rv.SpecVersion,
		TransactionVersion: rv.TransactionVersion,
		CheckpointNumber:   number,
		CheckpointHash:     finalized,
		FetchedAt:          time.Now().UTC(),
		Metadata:           meta,
	}

	if account != "" {
		nonce, err := c.AccountNonce(ctx, account)
		if err != nil {
			return nil, err
		}
		bundle.Account = account
		bundle.Nonce = &nonce
	}

	if err := bundle.Validate(); err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"spec_version": rv.SpecVersion,
		"tx_version":   rv.TransactionVersion,
		"checkpoint":   number,
		"spec_name":    rv.SpecName,
	}).Info("Fetched chain bundle")

	return bundle, nil
}

// AccountNonce returns the next nonce for an SS58 address, counting
// transactions already in the pool.
func (c *Client) AccountNonce(ctx context.Context, account string) (uint32, error) {
	var nonce uint32
	if err := c.call(ctx, &nonce, "system_accountNextIndex", account); err != nil {
		return 0, fmt.Errorf("getting nonce: %w", err)
	}
	return nonce, nil
}

// Submit sends a signed extrinsic and returns the hash the node reports.
func (c *Client) Submit(ctx context.Context, extrinsicHex string) (string, error) {
	if _, err := codec.DecodeHex(extrinsicHex); err != nil {
		return "", fmt.Errorf("extrinsic: %w", err)
	}
	var hash string
	if err := c.call(ctx, &hash, "author_submitExtrinsic", extrinsicHex); err != nil {
		return "", fmt.Errorf("submitting extrinsic: %w", err)
	}
	c.log.WithField("hash", hash).Info("Submitted extrinsic")
	return hash, nil
}

func parseBlockNumber(s string) (uint64, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid block number %q: %w", s, err)
	}
	return n, nil
}
