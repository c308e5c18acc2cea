// Package monitorclient follows the monitor API WebSocket and hands every
// snapshot to a callback, reconnecting with exponential backoff.
package monitorclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"github.com/NotCoffee418/energy_monitor/pkg/loader"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var ErrMaxRetries = errors.New("max connection retries reached")

type Listener struct {
	URL            url.URL
	MaxRetries     int
	BaseRetryDelay time.Duration
	MaxRetryDelay  time.Duration
	PingInterval   time.Duration
	// Time without any frame after which the connection is considered dead.
	ReadTimeout time.Duration

	logger *zap.Logger
}

func NewListener(host string, tlsEnabled bool, logger *zap.Logger) *Listener {
	scheme := "ws"
	if tlsEnabled {
		scheme = "wss"
	}
	return &Listener{
		URL:            url.URL{Scheme: scheme, Host: host, Path: "/ws"},
		MaxRetries:     10,
		BaseRetryDelay: 2 * time.Second,
		MaxRetryDelay:  60 * time.Second,
		PingInterval:   30 * time.Second,
		ReadTimeout:    75 * time.Second,
		logger:         logger,
	}
}

// Run manages the connection and calls handle for each snapshot until ctx is
// done or MaxRetries consecutive connection attempts failed.
func (l *Listener) Run(ctx context.Context, handle func(snap *loader.Snapshot)) error {
	retryCount := 0

	for {
		if ctx.Err() != nil {
			return nil
		}

		// Calculate retry delay with exponential backoff
		retryDelay := time.Duration(1<<retryCount) * l.BaseRetryDelay
		if retryDelay > l.MaxRetryDelay || retryDelay <= 0 {
			retryDelay = l.MaxRetryDelay
		}

		if retryCount > 0 {
			l.logger.Info("retrying connection",
				zap.Duration("delay", retryDelay),
				zap.Int("attempt", retryCount+1),
				zap.Int("max_retries", l.MaxRetries))
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				l.logger.Info("shutdown requested during retry wait")
				return nil
			}
		}

		l.logger.Info("connecting", zap.String("url", l.URL.String()))

		dialer := *websocket.DefaultDialer
		dialer.HandshakeTimeout = 10 * time.Second
		c, _, err := dialer.DialContext(ctx, l.URL.String(), nil)
		if err != nil {
			l.logger.Warn("connection failed", zap.Error(err))
			retryCount++
			if retryCount >= l.MaxRetries {
				l.logger.Error("giving up", zap.Int("max_retries", l.MaxRetries))
				return ErrMaxRetries
			}
			continue
		}

		l.logger.Info("connected, receiving snapshots")
		retryCount = 0

		connectionBroken := l.handleConnection(ctx, c, handle)
		c.Close()

		if !connectionBroken {
			return nil
		}
		l.logger.Warn("connection lost, will retry")
		// back off before reconnecting
		retryCount = 1
	}
}

func (l *Listener) handleConnection(ctx context.Context, c *websocket.Conn, handle func(snap *loader.Snapshot)) bool {
	done := make(chan struct{})

	c.SetReadDeadline(time.Now().Add(l.ReadTimeout))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(l.ReadTimeout))
	})

	go func() {
		defer close(done)
		for {
			messageType, message, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					l.logger.Warn("websocket error", zap.Error(err))
				} else {
					l.logger.Info("connection closed", zap.Error(err))
				}
				return
			}

			c.SetReadDeadline(time.Now().Add(l.ReadTimeout))

			if messageType != websocket.TextMessage {
				l.logger.Debug("ignoring unexpected message type", zap.Int("type", messageType))
				continue
			}
			var snap loader.Snapshot
			if err := json.Unmarshal(message, &snap); err != nil {
				l.logger.Warn("failed to parse snapshot", zap.Error(err))
				continue
			}
			handle(&snap)
		}
	}()

	ticker := time.NewTicker(l.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return true
		case <-ticker.C:
			deadline := time.Now().Add(10 * time.Second)
			if err := c.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				l.logger.Warn("failed to send ping", zap.Error(err))
			}
		case <-ctx.Done():
			l.logger.Info("closing connection")
			err := c.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			if err != nil {
				l.logger.Debug("error sending close message", zap.Error(err))
			}

			// Wait for close confirmation or timeout
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return false
		}
	}
}
