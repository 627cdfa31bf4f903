package substrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"airgap/internal/codec"
)

var (
	ErrExtrinsicRejected = errors.New("extrinsic rejected")
	ErrRPC               = errors.New("rpc error")
)

// Extrinsic states reported by author_extrinsicUpdate
const (
	StateReady           = "ready"
	StateFuture          = "future"
	StateBroadcast       = "broadcast"
	StateInBlock         = "inBlock"
	StateRetracted       = "retracted"
	StateFinalityTimeout = "finalityTimeout"
	StateFinalized       = "finalized"
	StateUsurped         = "usurped"
	StateDropped         = "dropped"
	StateInvalid         = "invalid"
)

// Status is one transaction pool update. Block is set for inBlock,
// retracted, finalityTimeout and finalized.
type Status struct {
	State string
	Block string
}

// Failed reports whether the pool gave up on the extrinsic.
func (s Status) Failed() bool {
	switch s.State {
	case StateUsurped, StateDropped, StateInvalid, StateFinalityTimeout:
		return true
	}
	return false
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var state string
	if err := json.Unmarshal(data, &state); err == nil {
		*s = Status{State: state}
		return nil
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("unexpected extrinsic status %s", data)
	}
	if len(tagged) != 1 {
		return fmt.Errorf("unexpected extrinsic status %s", data)
	}
	for key, val := range tagged {
		s.State = key
		s.Block = ""
		var block string
		if json.Unmarshal(val, &block) == nil {
			s.Block = block
		}
	}
	return nil
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcMessage struct {
	ID     *int            `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
	Method string          `json:"method"`
	Params struct {
		Subscription json.RawMessage `json:"subscription"`
		Result       Status          `json:"result"`
	} `json:"params"`
}

// Watcher submits an extrinsic over its own websocket and follows it through
// the transaction pool.
type Watcher struct {
	endpoint string
	dialer   websocket.Dialer
	log      logrus.FieldLogger
}

// NewWatcher creates a watcher for endpoint
func NewWatcher(endpoint string, log logrus.FieldLogger) *Watcher {
	return &Watcher{
		endpoint: endpoint,
		dialer: websocket.Dialer{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: 10 * time.Second,
		},
		log: log.WithField("endpoint", endpoint),
	}
}

// SubmitAndWatch submits the extrinsic and blocks until it is in a block, or
// finalized when waitFinalized is set. onUpdate, when not nil, sees every
// status on the way.
func (w *Watcher) SubmitAndWatch(ctx context.Context, extrinsicHex string, waitFinalized bool, onUpdate func(Status)) (Status, error) {
	if _, err := codec.DecodeHex(extrinsicHex); err != nil {
		return Status{}, fmt.Errorf("extrinsic: %w", err)
	}

	conn, _, err := w.dialer.DialContext(ctx, w.endpoint, nil)
	if err != nil {
		return Status{}, fmt.Errorf("dialing node: %w", err)
	}

	// Closing the connection unblocks ReadMessage when ctx ends.
	var closeOnce sync.Once
	closeConn := func() {
		closeOnce.Do(func() {
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		})
	}
	defer closeConn()
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-stop:
		}
	}()

	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "author_submitAndWatchExtrinsic",
		Params:  []interface{}{extrinsicHex},
	}
	if err := conn.WriteJSON(req); err != nil {
		return Status{}, fmt.Errorf("sending extrinsic: %w", err)
	}

	var last Status
	for {
		var msg rpcMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return last, ctx.Err()
			}
			return last, fmt.Errorf("reading update: %w", err)
		}

		switch {
		case msg.Error != nil:
			return last, fmt.Errorf("%w %d: %s", ErrRPC, msg.Error.Code, msg.Error.Message)
		case msg.ID != nil:
			w.log.WithField("subscription", string(msg.Result)).Debug("Watching extrinsic")
			continue
		case msg.Method != "author_extrinsicUpdate":
			continue
		}

		last = msg.Params.Result
		w.log.WithFields(logrus.Fields{
			"state": last.State,
			"block": last.Block,
		}).Info("Extrinsic status")
		if onUpdate != nil {
			onUpdate(last)
		}

		switch {
		case last.Failed():
			return last, fmt.Errorf("%w: %s", ErrExtrinsicRejected, last.State)
		case last.State == StateFinalized:
			return last, nil
		case last.State == StateInBlock && !waitFinalized:
			return last, nil
		}
	}
}
