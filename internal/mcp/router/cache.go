package router

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MrWong99/mcpbridge/internal/mcp"
)

// ErrClosed is returned when a connection is requested after [Router.Close].
var ErrClosed = errors.New("router: closed")

// connCache holds one session per server name. Sessions are created on first
// use and kept until close. Concurrent first use of the same server shares a
// single in-flight connection attempt; a failed attempt caches nothing.
type connCache struct {
	connector mcp.Connector

	mu       sync.RWMutex
	sessions map[string]mcp.Session
	closed   bool

	inflight singleflight.Group

	// onConnect is invoked after every connection attempt with its outcome.
	onConnect func(ctx context.Context, server string, elapsed time.Duration, err error)
}

func newConnCache(connector mcp.Connector) *connCache {
	return &connCache{
		connector: connector,
		sessions:  make(map[string]mcp.Session),
	}
}

// lookup returns the cached session for name.
func (c *connCache) lookup(name string) (mcp.Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[name]
	return s, ok
}

// isClosed reports whether close has been called.
func (c *connCache) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// get returns the session for cfg.Name, connecting if necessary. Callers that
// join an in-flight attempt share its outcome, including its context.
func (c *connCache) get(ctx context.Context, cfg mcp.ServerConfig) (mcp.Session, error) {
	if s, ok := c.lookup(cfg.Name); ok {
		return s, nil
	}

	v, err, _ := c.inflight.Do(cfg.Name, func() (any, error) {
		c.mu.RLock()
		s, ok := c.sessions[cfg.Name]
		closed := c.closed
		c.mu.RUnlock()
		if ok {
			return s, nil
		}
		if closed {
			return nil, ErrClosed
		}

		start := time.Now()
		s, err := c.connector.Connect(ctx, cfg)
		if c.onConnect != nil {
			c.onConnect(ctx, cfg.Name, time.Since(start), err)
		}
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			_ = s.Close()
			return nil, ErrClosed
		}
		c.sessions[cfg.Name] = s
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(mcp.Session), nil
}

// close closes every cached session and rejects further connections.
// It returns the number of sessions closed and the joined close errors.
func (c *connCache) close() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	var errs []error
	n := 0
	for name, s := range c.sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("router: close server %q: %w", name, err))
		}
		delete(c.sessions, name)
		n++
	}
	return n, errors.Join(errs...)
}
