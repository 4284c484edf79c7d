package conn

import (
	"context"
	"fmt"
)

// IsolationLevel names a transaction's SQL isolation level, sent
// verbatim in a BEGIN statement's ISOLATION LEVEL clause.
type IsolationLevel string

const (
	ReadUncommitted IsolationLevel = "READ UNCOMMITTED"
	ReadCommitted   IsolationLevel = "READ COMMITTED"
	RepeatableRead  IsolationLevel = "REPEATABLE READ"
	Serializable    IsolationLevel = "SERIALIZABLE"
)

// TxOptions configures Begin, mirroring the Transaction entity's
// isolation level, read-only flag, and deferrable flag. The zero value
// leaves isolation at the server's default and starts a READ WRITE,
// NOT DEFERRABLE transaction.
type TxOptions struct {
	Isolation  IsolationLevel
	ReadOnly   bool
	Deferrable bool
}

// beginSQL renders the BEGIN statement for opts, e.g.
// "BEGIN ISOLATION LEVEL SERIALIZABLE READ ONLY DEFERRABLE".
func (o TxOptions) beginSQL() string {
	sql := "BEGIN"
	if o.Isolation != "" {
		sql += " ISOLATION LEVEL " + string(o.Isolation)
	}
	if o.ReadOnly {
		sql += " READ ONLY"
	} else {
		sql += " READ WRITE"
	}
	if o.Deferrable {
		sql += " DEFERRABLE"
	} else {
		sql += " NOT DEFERRABLE"
	}
	return sql
}

// Transaction wraps a Connection already inside BEGIN/COMMIT/ROLLBACK,
// tracking nested savepoints. All query operations remain available
// directly on the underlying Connection (via Conn); Transaction only
// adds the commit/rollback/savepoint bookkeeping.
type Transaction struct {
	conn         *Connection
	opts         TxOptions
	savepointSeq int
	done         bool
}

// Begin starts a transaction block with opts (the zero value if
// omitted). The connection must be idle (not already inside a
// transaction).
func (c *Connection) Begin(ctx context.Context, opts ...TxOptions) (*Transaction, error) {
	if c.phase != PhaseIdle {
		return nil, &InterfaceError{Message: "a transaction is already in progress on this connection"}
	}
	var o TxOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	if _, err := c.Execute(ctx, o.beginSQL()); err != nil {
		return nil, err
	}
	return &Transaction{conn: c, opts: o}, nil
}

// Options returns the TxOptions the transaction was started with.
func (tx *Transaction) Options() TxOptions { return tx.opts }

// Conn returns the underlying Connection, for running queries within
// the transaction.
func (tx *Transaction) Conn() *Connection { return tx.conn }

// Commit commits the transaction. Calling Commit after a prior Commit
// or Rollback returns InterfaceError.
func (tx *Transaction) Commit(ctx context.Context) error {
	if tx.done {
		return &InterfaceError{Message: "transaction already closed"}
	}
	tx.done = true
	_, err := tx.conn.Execute(ctx, "COMMIT")
	return err
}

// Rollback aborts the transaction. Calling Rollback after Commit (or a
// prior Rollback) is a no-op, so callers can safely defer it.
func (tx *Transaction) Rollback(ctx context.Context) error {
	if tx.done {
		return nil
	}
	tx.done = true
	_, err := tx.conn.Execute(ctx, "ROLLBACK")
	return err
}

// Savepoint establishes a new nested savepoint within the transaction.
func (tx *Transaction) Savepoint(ctx context.Context) (*Savepoint, error) {
	if tx.done {
		return nil, &InterfaceError{Message: "transaction already closed"}
	}
	tx.savepointSeq++
	name := fmt.Sprintf("pgnative_sp%d", tx.savepointSeq)
	if _, err := tx.conn.Execute(ctx, "SAVEPOINT "+quoteIdentifier(name)); err != nil {
		return nil, err
	}
	return &Savepoint{tx: tx, name: name}, nil
}

// Savepoint is a nested rollback point within a Transaction.
type Savepoint struct {
	tx   *Transaction
	name string
	done bool
}

// Release discards the savepoint, keeping everything done since it was
// established.
func (s *Savepoint) Release(ctx context.Context) error {
	if s.done {
		return &InterfaceError{Message: "savepoint already released or rolled back"}
	}
	s.done = true
	_, err := s.tx.conn.Execute(ctx, "RELEASE SAVEPOINT "+quoteIdentifier(s.name))
	return err
}

// RollbackTo undoes everything done since the savepoint was
// established, without ending the enclosing transaction.
func (s *Savepoint) RollbackTo(ctx context.Context) error {
	if s.done {
		return &InterfaceError{Message: "savepoint already released or rolled back"}
	}
	s.done = true
	_, err := s.tx.conn.Execute(ctx, "ROLLBACK TO SAVEPOINT "+quoteIdentifier(s.name))
	return err
}
