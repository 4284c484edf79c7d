// Package conn implements the PostgreSQL frontend protocol engine and
// the Connection type built on top of it: startup and authentication,
// simple and extended query execution, prepared-statement caching,
// cursors, COPY, transactions/savepoints, and LISTEN/NOTIFY.
//
// It generalizes the teacher's server/connection.go Handle/startup/
// queryLoop/handleQuery sequencing, inverted to drive the conversation
// from the client side instead of reacting to it.
package conn

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"pgnative/auth"
	"pgnative/record"
	"pgnative/types"
	"pgnative/wire"
)

// Config carries everything Connect needs to dial and authenticate a
// single backend connection. dsn.Parse produces one of these from a
// connection string or keyword/value pairs.
type Config struct {
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	ApplicationName    string
	StatementCacheSize int
	// MaxCachedStatementLifetime bounds how long a cached prepared
	// statement may be reused before it is re-Parsed; <= 0 means a
	// cached statement never expires by age (only by LRU eviction).
	MaxCachedStatementLifetime time.Duration
	RuntimeParams              map[string]string
	ConnectTimeout             time.Duration
	Logger             *logrus.Entry
	Registry           *types.Registry
}

// CommandTag is the raw "INSERT 0 3"-style string a CommandComplete
// message carries; RowsAffected parses the row count out of it.
type CommandTag string

// RowsAffected returns the row count that ends the tag ("INSERT 0 3"
// gives 3, "UPDATE 2" gives 2), or 0 for a tag without one ("BEGIN").
func (t CommandTag) RowsAffected() int64 {
	s := string(t)
	i := strings.LastIndexByte(s, ' ')
	if i < 0 {
		return 0
	}
	n, err := strconv.ParseInt(s[i+1:], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Connection is a single, non-pooled backend connection. It is not
// safe for concurrent use: only one operation may be in flight at a
// time, enforced by opMu, matching spec.md's single-writer invariant
// for the underlying socket.
type Connection struct {
	opMu sync.Mutex

	netConn net.Conn
	r       *wire.Reader
	w       *wire.Writer

	cfg        Config
	backendPID int32
	secretKey  int32
	params     map[string]string
	phase      Phase
	registry   *types.Registry
	stmtCache  *statementCache
	log        *logrus.Entry

	listenMu       sync.Mutex
	notifyHandlers map[string][]func(Notification)
	noticeHandler  func(wire.ErrorFields)

	closed bool
}

// Connect dials cfg.Host:cfg.Port, performs the startup message and
// authentication sub-dialogue, and waits for the first ReadyForQuery.
func Connect(ctx context.Context, cfg Config) (*Connection, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	d := net.Dialer{}
	if cfg.ConnectTimeout > 0 {
		d.Timeout = cfg.ConnectTimeout
	}
	netConn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &ConnectionError{Addr: addr, Err: err}
	}

	reg := cfg.Registry
	if reg == nil {
		reg = types.Default()
	}

	c := &Connection{
		netConn:        netConn,
		r:              wire.NewReader(netConn),
		w:              wire.NewWriter(netConn),
		cfg:            cfg,
		params:         make(map[string]string),
		phase:          PhaseHandshake,
		registry:       reg.Fork(),
		stmtCache:      newStatementCacheWithLifetime(cfg.StatementCacheSize, cfg.MaxCachedStatementLifetime),
		notifyHandlers: make(map[string][]func(Notification)),
		log:            cfg.Logger,
	}
	if c.log == nil {
		c.log = logrus.NewEntry(logrus.StandardLogger())
	}

	if err := c.startup(); err != nil {
		netConn.Close()
		return nil, err
	}
	return c, nil
}

func (c *Connection) startup() error {
	params := map[string]string{"user": c.cfg.User}
	if c.cfg.Database != "" {
		params["database"] = c.cfg.Database
	} else {
		params["database"] = c.cfg.User
	}
	if c.cfg.ApplicationName != "" {
		params["application_name"] = c.cfg.ApplicationName
	}
	for k, v := range c.cfg.RuntimeParams {
		params[k] = v
	}

	if err := c.w.WriteStartupMessage(wire.StartupMessage{
		ProtocolVersion: wire.ProtocolVersion,
		Parameters:      params,
	}); err != nil {
		return &ConnectionError{Addr: c.netConn.RemoteAddr().String(), Err: err}
	}
	c.phase = PhaseAuthenticating

	creds := auth.Credentials{User: c.cfg.User, Password: c.cfg.Password}
	authenticated := false
	for !authenticated {
		msg, err := c.r.ReadMessage()
		if err != nil {
			return &ConnectionError{Addr: c.netConn.RemoteAddr().String(), Err: err}
		}
		switch msg.Type {
		case wire.MsgAuthentication:
			if err := auth.Dispatch(c.r, c.w, creds, msg); err != nil {
				return &AuthenticationError{Err: err}
			}
			authenticated = true
		case wire.MsgErrorResponse:
			fields, derr := wire.DecodeErrorFields(msg.Payload)
			if derr != nil {
				return derr
			}
			return &AuthenticationError{Err: postgresErrorFromFields(fields)}
		default:
			return &ProtocolError{Phase: "handshake", Message: fmt.Sprintf("unexpected message %q before authentication", msg.Type)}
		}
	}

	for {
		msg, err := c.r.ReadMessage()
		if err != nil {
			return &ConnectionError{Addr: c.netConn.RemoteAddr().String(), Err: err}
		}
		switch msg.Type {
		case wire.MsgParameterStatus:
			name, value, derr := wire.DecodeParameterStatus(msg.Payload)
			if derr != nil {
				return derr
			}
			c.params[name] = value
		case wire.MsgBackendKeyData:
			pid, secret, derr := wire.DecodeBackendKeyData(msg.Payload)
			if derr != nil {
				return derr
			}
			c.backendPID, c.secretKey = pid, secret
		case wire.MsgNoticeResponse:
			c.handleNotice(msg.Payload)
		case wire.MsgReadyForQuery:
			status, derr := decodeReadyForQuery(msg.Payload)
			if derr != nil {
				return derr
			}
			c.phase = phaseFromTxStatus(status)
			return nil
		case wire.MsgErrorResponse:
			fields, derr := wire.DecodeErrorFields(msg.Payload)
			if derr != nil {
				return derr
			}
			return &ConnectionError{Addr: c.netConn.RemoteAddr().String(), Err: postgresErrorFromFields(fields)}
		default:
			return &ProtocolError{Phase: "handshake", Message: fmt.Sprintf("unexpected message %q during parameter exchange", msg.Type)}
		}
	}
}

func decodeReadyForQuery(payload []byte) (byte, error) {
	if len(payload) != 1 {
		return 0, &ProtocolError{Phase: "ready-for-query", Message: fmt.Sprintf("payload length %d, want 1", len(payload))}
	}
	return payload[0], nil
}

// Parameter returns a value reported by the server via ParameterStatus
// (server_version, client_encoding, TimeZone, ...).
func (c *Connection) Parameter(name string) (string, bool) {
	v, ok := c.params[name]
	return v, ok
}

// BackendPID returns the server's backend process ID, used by Cancel
// and surfaced for diagnostics (matching pg_stat_activity.pid).
func (c *Connection) BackendPID() int32 { return c.backendPID }

// Phase reports the engine's current protocol phase.
func (c *Connection) Phase() Phase { return c.phase }

// Registry returns the connection-local type codec registry, layered
// copy-on-write over the process-wide default so per-connection
// introspected or custom codecs never leak to other connections.
func (c *Connection) Registry() *types.Registry { return c.registry }

// StatementCacheMemory estimates the heap footprint of this
// connection's cached prepared statements, for pool-level accounting.
func (c *Connection) StatementCacheMemory() int64 {
	return c.stmtCache.approxMemory()
}

// SetNoticeHandler installs a callback invoked for every NoticeResponse
// the server sends outside of an ErrorResponse (e.g. a RAISE NOTICE).
// A nil handler discards notices.
func (c *Connection) SetNoticeHandler(fn func(wire.ErrorFields)) {
	c.listenMu.Lock()
	defer c.listenMu.Unlock()
	c.noticeHandler = fn
}

func (c *Connection) handleNotice(payload []byte) {
	fields, err := wire.DecodeErrorFields(payload)
	if err != nil {
		return
	}
	c.listenMu.Lock()
	h := c.noticeHandler
	c.listenMu.Unlock()
	if h != nil {
		h(fields)
	} else {
		c.log.WithField("severity", fields.Severity()).Debug(fields.Message())
	}
}

// Cancel sends a CancelRequest on a fresh connection to the same
// backend, per the protocol's out-of-band cancellation mechanism (the
// request carries no reply and may race the original query's
// completion, so a nil error only means the request was sent, not that
// it arrived before the query finished).
func (c *Connection) Cancel(ctx context.Context) error {
	addr := c.netConn.RemoteAddr().String()
	d := net.Dialer{}
	cancelConn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return &ConnectionError{Addr: addr, Err: err}
	}
	defer cancelConn.Close()
	w := wire.NewWriter(cancelConn)
	return w.WriteCancelRequest(c.backendPID, c.secretKey)
}

// Close gracefully terminates the connection, sending Terminate and
// closing the socket. Calling Close more than once is a no-op.
func (c *Connection) Close() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.terminateLocked()
}

// terminateLocked closes the underlying socket and marks the connection
// terminated; idempotent. Callers must already hold opMu — withContext
// calls this from inside an opMu-held operation and would deadlock
// against Close's own locking.
func (c *Connection) terminateLocked() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.phase = PhaseTerminated
	c.w.WriteTerminate()
	_ = c.w.FlushPending()
	return c.netConn.Close()
}

// withContext runs fn, honoring ctx cancellation by racing it against
// fn's completion and issuing a best-effort Cancel if ctx loses. fn is
// always allowed to unwind (its goroutine is not abandoned), so the
// connection never sees two read loops racing the socket.
//
// A ctx deadline/cancellation during fn means fn's read loop unwinds on
// its own socket error (the deadline fired under it) without draining
// the cancel's ErrorResponse+ReadyForQuery, so the connection can no
// longer be trusted to be resynchronized at a message boundary.
// Reading on past that point risks attributing a stale reply to the
// caller's next operation, so the connection is terminated outright
// rather than handed back to a pool in an unknown state.
func (c *Connection) withContext(ctx context.Context, fn func() error) error {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.netConn.SetDeadline(dl)
		defer c.netConn.SetDeadline(time.Time{})
	}
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		_ = c.Cancel(context.Background())
		<-done // let fn's goroutine unwind before the caller reuses the connection
		_ = c.terminateLocked()
		return &CancelledError{Err: ctx.Err()}
	}
}

// requireIdle rejects operations that assume no other portal/copy mode
// is active, matching the single-in-flight-operation invariant.
func (c *Connection) requireIdle() error {
	switch c.phase {
	case PhaseIdle, PhaseInTransaction, PhaseInFailedTransaction:
		return nil
	case PhaseTerminated:
		return &InterfaceError{Message: "connection is closed"}
	default:
		return &ProtocolError{Phase: c.phase.String(), Message: "operation requires an idle connection"}
	}
}

// requireInTransaction rejects operations — cursors, chiefly — whose
// named portal would otherwise be destroyed the instant Sync commits
// an implicit transaction. Returns InterfaceError{NoTransaction} when
// called outside an explicit Begin.
func (c *Connection) requireInTransaction() error {
	switch c.phase {
	case PhaseInTransaction, PhaseInFailedTransaction:
		return nil
	case PhaseTerminated:
		return &InterfaceError{Message: "connection is closed"}
	default:
		return &InterfaceError{Message: "NoTransaction: operation requires an explicit transaction"}
	}
}

// decodeRow converts one wire DataRow's raw column bytes into Go
// values via the connection's registry, using each column's reported
// OID and format code.
func (c *Connection) decodeRow(cols []wire.ColumnDescription, raw [][]byte) ([]any, error) {
	values := make([]any, len(raw))
	for i, v := range raw {
		oid := types.OID(cols[i].DataTypeOID)
		format := types.Format(cols[i].FormatCode)
		codec, ok := c.registry.Lookup(oid)
		if !ok {
			values[i] = v // no codec: surface the raw bytes rather than fail the whole row
			continue
		}
		decoded, err := codec.Decode(v, format)
		if err != nil {
			return nil, &DataError{Column: i, Err: err}
		}
		values[i] = decoded
	}
	return values, nil
}

func columnDescriptors(cols []wire.ColumnDescription) []record.ColumnDescriptor {
	out := make([]record.ColumnDescriptor, len(cols))
	for i, c := range cols {
		out[i] = record.ColumnDescriptor{
			Name:         c.Name,
			TableOID:     c.TableOID,
			ColumnAttNum: c.ColumnAttr,
			TypeOID:      types.OID(c.DataTypeOID),
			TypeSize:     c.DataTypeSize,
			TypeModifier: c.TypeModifier,
			Format:       types.Format(c.FormatCode),
		}
	}
	return out
}
