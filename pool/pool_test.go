package pool

import (
	"context"
	"testing"
	"time"

	"golang.org/x/sync/semaphore"

	"pgnative/conn"
)

func newTestPool(maxSize int) *Pool {
	return &Pool{cfg: Config{MaxSize: maxSize}, sem: semaphore.NewWeighted(int64(maxSize))}
}

func TestPool_Acquire_ReusesMostRecentlyReleased(t *testing.T) {
	p := newTestPool(2)
	first := &pooledConn{createdAt: time.Now(), idleSince: time.Now()}
	second := &pooledConn{createdAt: time.Now(), idleSince: time.Now()}
	p.idle = []*pooledConn{first, second}

	leased, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if leased.pooled != second {
		t.Fatalf("Acquire returned %p, want the most-recently-pushed entry %p", leased.pooled, second)
	}
	if len(p.idle) != 1 || p.idle[0] != first {
		t.Fatalf("idle set after Acquire = %+v, want [first]", p.idle)
	}
}

func TestPool_IsStale(t *testing.T) {
	p := newTestPool(1)
	p.cfg.MaxLifetime = time.Hour
	old := &pooledConn{createdAt: time.Now().Add(-2 * time.Hour), idleSince: time.Now()}
	if !p.isStale(old) {
		t.Fatalf("connection past MaxLifetime reported as not stale")
	}

	fresh := &pooledConn{createdAt: time.Now(), idleSince: time.Now()}
	if p.isStale(fresh) {
		t.Fatalf("fresh connection reported as stale")
	}
}

func TestPool_IsHealthy_DefaultsToTrue(t *testing.T) {
	p := newTestPool(1)
	if !p.isHealthy(&pooledConn{}) {
		t.Fatalf("isHealthy with no HealthCheck configured returned false")
	}
}

func TestPool_IsHealthy_RunsConfiguredCheck(t *testing.T) {
	p := newTestPool(1)
	p.cfg.HealthCheck = func(*conn.Connection) bool { return false }
	if p.isHealthy(&pooledConn{}) {
		t.Fatalf("isHealthy ignored a HealthCheck that returned false")
	}
}

func TestPool_Acquire_AfterCloseFails(t *testing.T) {
	p := newTestPool(1)
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := p.Acquire(context.Background()); err == nil {
		t.Fatalf("Acquire after Close: expected an error")
	}
}

func TestConn_Release_ReturnsToIdleSet(t *testing.T) {
	p := newTestPool(1)
	pc := &pooledConn{conn: &conn.Connection{}, createdAt: time.Now()}
	c := &Conn{pool: p, pooled: pc}
	p.sem.Acquire(context.Background(), 1)

	c.Release()
	if len(p.idle) != 1 || p.idle[0] != pc {
		t.Fatalf("idle set after Release = %+v, want [pc]", p.idle)
	}

	// releasing twice must not double-return the connection.
	c.Release()
	if len(p.idle) != 1 {
		t.Fatalf("idle set after double Release = %+v, want len 1", p.idle)
	}
}
