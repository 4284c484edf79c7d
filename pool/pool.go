// Package pool implements a bounded set of Connections, grounded on the
// teacher's server.Server: a mutex-guarded shared field, a WaitGroup-style
// accounting of work in flight, and a context-bounded shutdown — turned
// inside out from "accept and hand off" to "acquire and hand back".
package pool

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"pgnative/conn"
)

// Config configures a Pool. MaxSize bounds the number of live
// Connections. There is no minimum size: connections are created
// lazily by Acquire, never ahead of time.
type Config struct {
	ConnConfig  conn.Config
	MaxSize     int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
	// HealthCheck, if set, runs on a connection pulled from the idle
	// set before it is handed to a caller; returning false discards it
	// and tries the next idle connection (or dials a fresh one).
	HealthCheck func(*conn.Connection) bool
}

type pooledConn struct {
	conn      *conn.Connection
	createdAt time.Time
	idleSince time.Time
}

// Pool hands out *Conn leases up to Config.MaxSize concurrently,
// reusing idle connections LIFO (the most recently returned connection
// is the most likely to still be warm) while callers queue FIFO on the
// bounding semaphore when the pool is at capacity.
type Pool struct {
	cfg Config
	sem *semaphore.Weighted

	mu     sync.Mutex
	idle   []*pooledConn
	closed bool
}

// New creates a Pool. MaxSize <= 0 defaults to 10.
func New(cfg Config) *Pool {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 10
	}
	return &Pool{cfg: cfg, sem: semaphore.NewWeighted(int64(cfg.MaxSize))}
}

// Acquire blocks until a connection is available or ctx is done. The
// returned *Conn must be released exactly once, via Release or
// Discard.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, &conn.CancelledError{Err: err}
	}

	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			p.sem.Release(1)
			return nil, &conn.PoolError{Reason: "pool is closed"}
		}
		if len(p.idle) == 0 {
			p.mu.Unlock()
			break
		}
		pc := p.idle[len(p.idle)-1]
		p.idle = p.idle[:len(p.idle)-1]
		p.mu.Unlock()

		if p.isStale(pc) || !p.isHealthy(pc) {
			pc.conn.Close()
			continue
		}
		return &Conn{pool: p, pooled: pc}, nil
	}

	c, err := conn.Connect(ctx, p.cfg.ConnConfig)
	if err != nil {
		p.sem.Release(1)
		return nil, err
	}
	return &Conn{pool: p, pooled: &pooledConn{conn: c, createdAt: time.Now()}}, nil
}

func (p *Pool) isStale(pc *pooledConn) bool {
	now := time.Now()
	if p.cfg.MaxLifetime > 0 && now.Sub(pc.createdAt) > p.cfg.MaxLifetime {
		return true
	}
	if p.cfg.MaxIdleTime > 0 && now.Sub(pc.idleSince) > p.cfg.MaxIdleTime {
		return true
	}
	return false
}

func (p *Pool) isHealthy(pc *pooledConn) bool {
	if p.cfg.HealthCheck == nil {
		return true
	}
	return p.cfg.HealthCheck(pc.conn)
}

// release returns pc to the idle set, or closes it outright if the
// pool has been closed in the meantime, or if pc was terminated by its
// own withContext (a command deadline fired mid-operation) and so can
// no longer be trusted to be resynchronized at ReadyForQuery.
func (p *Pool) release(pc *pooledConn) {
	if pc.conn.Phase() == conn.PhaseTerminated {
		p.discard(pc)
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		pc.conn.Close()
		p.sem.Release(1)
		return
	}
	pc.idleSince = time.Now()
	p.idle = append(p.idle, pc)
	p.mu.Unlock()
	p.sem.Release(1)
}

// discard closes pc outright instead of returning it to the idle set,
// used when the caller knows the connection is no longer usable (a
// broken transaction, a protocol error).
func (p *Pool) discard(pc *pooledConn) {
	pc.conn.Close()
	p.sem.Release(1)
}

// Stats reports the pool's current idle-set size and the approximate
// combined heap footprint of its idle connections' statement caches,
// useful for sizing MaxSize/StatementCacheSize against memory budgets.
type Stats struct {
	Idle               int
	StatementCacheBytes int64
}

func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := Stats{Idle: len(p.idle)}
	for _, pc := range p.idle {
		s.StatementCacheBytes += pc.conn.StatementCacheMemory()
	}
	return s
}

// Close closes every idle connection and marks the pool closed;
// connections currently on lease are closed as their *Conn is released
// rather than being forcibly interrupted.
func (p *Pool) Close() error {
	p.mu.Lock()
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	for _, pc := range idle {
		pc.conn.Close()
	}
	return nil
}

// Conn is a leased connection. Exactly one of Release or Discard must
// be called on it.
type Conn struct {
	pool     *Pool
	pooled   *pooledConn
	returned bool
}

// Connection returns the underlying, ready-to-use connection.
func (c *Conn) Connection() *conn.Connection { return c.pooled.conn }

// Release returns the connection to the pool for reuse.
func (c *Conn) Release() {
	if c.returned {
		return
	}
	c.returned = true
	c.pool.release(c.pooled)
}

// Discard closes the connection instead of returning it to the pool,
// for a caller that knows it is no longer in a reusable state.
func (c *Conn) Discard() {
	if c.returned {
		return
	}
	c.returned = true
	c.pool.discard(c.pooled)
}
