package conn

import (
	"context"
	"fmt"

	"pgnative/record"
	"pgnative/types"
	"pgnative/wire"
)

// Result is the outcome of Execute: the command tag PostgreSQL
// reported and, for statements with a RETURNING clause or similar, the
// rows it produced.
type Result struct {
	Tag  CommandTag
	Rows []record.Record
}

// Execute runs sql with args bound as parameters and returns every row
// the server produced along with its command tag. It is the general
// entry point; Fetch/FetchRow/FetchVal are convenience wrappers over it.
func (c *Connection) Execute(ctx context.Context, sql string, args ...any) (Result, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.requireIdle(); err != nil {
		return Result{}, err
	}

	var result Result
	err := c.withContext(ctx, func() error {
		r, err := c.execExtended(sql, args, 0)
		result = r
		return err
	})
	return result, err
}

// Fetch runs sql and decodes every resulting row.
func (c *Connection) Fetch(ctx context.Context, sql string, args ...any) ([]record.Record, error) {
	r, err := c.Execute(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return r.Rows, nil
}

// FetchRow runs sql and returns its first row, or (Record{}, false) if
// the query produced none.
func (c *Connection) FetchRow(ctx context.Context, sql string, args ...any) (record.Record, bool, error) {
	rows, err := c.Fetch(ctx, sql, args...)
	if err != nil {
		return record.Record{}, false, err
	}
	if len(rows) == 0 {
		return record.Record{}, false, nil
	}
	return rows[0], true, nil
}

// FetchVal runs sql and returns the first column of its first row.
func (c *Connection) FetchVal(ctx context.Context, sql string, args ...any) (any, error) {
	row, ok, err := c.FetchRow(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &InterfaceError{Message: "query returned no rows"}
	}
	return row.At(0), nil
}

// Prepare warms the statement cache for sql ahead of its first use,
// useful when the caller knows a statement will run many times and
// wants the Parse/Describe round trip to happen once, up front.
func (c *Connection) Prepare(ctx context.Context, sql string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	if err := c.requireIdle(); err != nil {
		return err
	}
	return c.withContext(ctx, func() error {
		_, err := c.prepareStatement(sql, nil)
		return err
	})
}

// execExtended runs the full Parse(-or-cached)/Bind/Describe/Execute/
// Sync sequence for one statement and collects its result.
func (c *Connection) execExtended(sql string, args []any, rowLimit int32) (Result, error) {
	stmt, err := c.prepareStatement(sql, nil)
	if err != nil {
		return Result{}, err
	}
	if len(args) != len(stmt.paramOIDs) {
		return Result{}, &InterfaceError{Message: fmt.Sprintf("statement expects %d arguments, got %d", len(stmt.paramOIDs), len(args))}
	}

	paramFormats := make([]int16, len(args))
	paramValues := make([][]byte, len(args))
	for i, arg := range args {
		var oid types.OID
		if i < len(stmt.paramOIDs) {
			oid = types.OID(stmt.paramOIDs[i])
		}
		data, format, err := c.encodeParam(oid, arg)
		if err != nil {
			return Result{}, &DataError{Column: i, Err: err}
		}
		paramValues[i] = data
		paramFormats[i] = format
	}

	portal := ""
	resultFormats := make([]int16, len(stmt.resultCols))
	for i, col := range stmt.resultCols {
		resultFormats[i] = col.FormatCode
	}

	c.w.WriteBind(portal, stmt.name, paramFormats, paramValues, resultFormats)
	c.w.WriteExecute(portal, rowLimit)
	c.w.WriteSync()
	if err := c.w.FlushPending(); err != nil {
		return Result{}, &ConnectionError{Addr: c.netConn.RemoteAddr().String(), Err: err}
	}

	return c.readExtendedResult(stmt.resultCols)
}

// prepareStatement returns the cached preparedStatement for sql,
// Parse+Describe-ing it first on a cache miss. explicitParamOIDs lets a
// caller pin parameter types; nil leaves inference to the server.
func (c *Connection) prepareStatement(sql string, explicitParamOIDs []int32) (*preparedStatement, error) {
	if stmt, ok := c.stmtCache.lookup(sql, explicitParamOIDs); ok {
		return stmt, nil
	}
	for _, name := range c.stmtCache.takePendingCloses() {
		c.closeStatement(name)
	}

	name := c.stmtCache.nextName()
	c.w.WriteParse(name, sql, explicitParamOIDs)
	c.w.WriteDescribe(wire.TargetStatement, name)
	c.w.WriteFlush()
	if err := c.w.FlushPending(); err != nil {
		return nil, &ConnectionError{Addr: c.netConn.RemoteAddr().String(), Err: err}
	}

	var paramOIDs []int32
	var resultCols []wire.ColumnDescription
	for {
		msg, err := c.r.ReadMessage()
		if err != nil {
			return nil, &ConnectionError{Addr: c.netConn.RemoteAddr().String(), Err: err}
		}
		switch msg.Type {
		case wire.MsgParseComplete:
			// no payload
		case wire.MsgParameterDescr:
			oids, derr := wire.DecodeParameterDescription(msg.Payload)
			if derr != nil {
				return nil, derr
			}
			paramOIDs = oids
		case wire.MsgRowDescription:
			cols, derr := wire.DecodeRowDescription(msg.Payload)
			if derr != nil {
				return nil, derr
			}
			resultCols = c.withPreferredFormats(cols)
			return c.cacheStatement(sql, explicitParamOIDs, name, paramOIDs, resultCols)
		case wire.MsgNoData:
			return c.cacheStatement(sql, explicitParamOIDs, name, paramOIDs, nil)
		case wire.MsgNoticeResponse:
			c.handleNotice(msg.Payload)
		case wire.MsgErrorResponse:
			fields, derr := wire.DecodeErrorFields(msg.Payload)
			if derr != nil {
				return nil, derr
			}
			// Parse/Describe went out with Flush, not Sync: send a Sync so
			// the server ends its error state with a ReadyForQuery.
			c.w.WriteSync()
			if err := c.w.FlushPending(); err != nil {
				return nil, &ConnectionError{Addr: c.netConn.RemoteAddr().String(), Err: err}
			}
			c.recoverFromError()
			return nil, postgresErrorFromFields(fields)
		case wire.MsgNotificationResp:
			if _, derr := c.decodeNotification(msg.Payload); derr != nil {
				return nil, derr
			}
		default:
			return nil, &ProtocolError{Phase: "prepare", Message: fmt.Sprintf("unexpected message %q", msg.Type)}
		}
	}
}

func (c *Connection) cacheStatement(sql string, explicitParamOIDs []int32, name string, paramOIDs []int32, resultCols []wire.ColumnDescription) (*preparedStatement, error) {
	stmt := &preparedStatement{name: name, sql: sql, paramOIDs: paramOIDs, resultCols: resultCols}
	if evictedName, evicted := c.stmtCache.insert(sql, explicitParamOIDs, stmt); evicted {
		c.closeStatement(evictedName)
	}
	return stmt, nil
}

// closeStatement sends a best-effort Close(Statement) for a name the
// cache has already forgotten (LRU- or age-evicted), draining the
// server's CloseComplete. Errors here don't affect the caller's own
// statement, which has already been cached under its own name.
func (c *Connection) closeStatement(name string) {
	c.w.WriteClose(wire.TargetStatement, name)
	c.w.WriteFlush()
	if err := c.w.FlushPending(); err != nil {
		return
	}
	if msg, err := c.r.ReadMessage(); err == nil && msg.Type != wire.MsgCloseComplete {
		c.log.WithField("tag", string(msg.Type)).Debug("unexpected reply draining evicted statement close")
	}
}

// withPreferredFormats rewrites each column's FormatCode to the
// registry's preferred format for its OID, so Bind can request binary
// wherever a binary codec is registered.
func (c *Connection) withPreferredFormats(cols []wire.ColumnDescription) []wire.ColumnDescription {
	out := make([]wire.ColumnDescription, len(cols))
	for i, col := range cols {
		out[i] = col
		if codec, ok := c.registry.Lookup(types.OID(col.DataTypeOID)); ok {
			out[i].FormatCode = int16(codec.PreferredFormat)
		} else {
			out[i].FormatCode = int16(types.FormatText)
		}
	}
	return out
}

// readExtendedResult consumes the BindComplete/DataRow*/CommandComplete
// (or PortalSuspended)/ReadyForQuery sequence that follows Bind+Execute
// +Sync for an unnamed portal (which never suspends: rowLimit is always
// 0 on this path).
func (c *Connection) readExtendedResult(cols []wire.ColumnDescription) (Result, error) {
	var result Result
	var rowsErr error
	descs := columnDescriptors(cols)
	for {
		msg, err := c.r.ReadMessage()
		if err != nil {
			return Result{}, &ConnectionError{Addr: c.netConn.RemoteAddr().String(), Err: err}
		}
		switch msg.Type {
		case wire.MsgBindComplete:
		case wire.MsgDataRow:
			raw, derr := wire.DecodeDataRow(msg.Payload)
			if derr != nil {
				rowsErr = derr
				continue
			}
			values, derr := c.decodeRow(cols, raw)
			if derr != nil {
				rowsErr = derr
				continue
			}
			result.Rows = append(result.Rows, record.Record{Columns: descs, Values: values})
		case wire.MsgCommandComplete:
			result.Tag = CommandTag(parseCString(msg.Payload))
		case wire.MsgEmptyQueryResponse, wire.MsgPortalSuspended:
		case wire.MsgNoticeResponse:
			c.handleNotice(msg.Payload)
		case wire.MsgNotificationResp:
			if _, derr := c.decodeNotification(msg.Payload); derr != nil {
				rowsErr = derr
			}
		case wire.MsgErrorResponse:
			fields, derr := wire.DecodeErrorFields(msg.Payload)
			if derr == nil {
				rowsErr = postgresErrorFromFields(fields)
			} else {
				rowsErr = derr
			}
		case wire.MsgReadyForQuery:
			status, derr := decodeReadyForQuery(msg.Payload)
			if derr != nil {
				return Result{}, derr
			}
			c.phase = phaseFromTxStatus(status)
			return result, rowsErr
		default:
			return Result{}, &ProtocolError{Phase: "execute", Message: fmt.Sprintf("unexpected message %q", msg.Type)}
		}
	}
}

// recoverFromError drains messages up to and including the
// ReadyForQuery that follows a Sync after the server reports an error,
// per the protocol's rule that only Sync resynchronizes the stream.
func (c *Connection) recoverFromError() {
	for {
		msg, err := c.r.ReadMessage()
		if err != nil {
			c.phase = PhaseTerminated
			return
		}
		if msg.Type == wire.MsgReadyForQuery {
			status, derr := decodeReadyForQuery(msg.Payload)
			if derr == nil {
				c.phase = phaseFromTxStatus(status)
			}
			return
		}
	}
}

func parseCString(payload []byte) string {
	for i, b := range payload {
		if b == 0 {
			return string(payload[:i])
		}
	}
	return string(payload)
}

// encodeParam renders arg for the wire using oid's codec when known; an
// unresolved (zero) OID falls back to a text representation, which
// PostgreSQL accepts for every parameter position it can infer a type
// for from context.
func (c *Connection) encodeParam(oid types.OID, arg any) (data []byte, format int16, err error) {
	if arg == nil {
		return nil, int16(types.FormatText), nil
	}
	if codec, ok := c.registry.Lookup(oid); ok {
		data, err = codec.Encode(arg, codec.PreferredFormat)
		if err != nil {
			return nil, 0, err
		}
		return data, int16(codec.PreferredFormat), nil
	}
	if s, ok := arg.(string); ok {
		return []byte(s), int16(types.FormatText), nil
	}
	return []byte(fmt.Sprint(arg)), int16(types.FormatText), nil
}

// SimpleQuery runs sql using the simple query protocol, which allows
// multiple semicolon-separated statements but never binds parameters
// and always returns results in text format. Used for scripts
// (migrations, session setup) rather than application queries.
func (c *Connection) SimpleQuery(ctx context.Context, sql string) ([]Result, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	if err := c.requireIdle(); err != nil {
		return nil, err
	}

	var results []Result
	err := c.withContext(ctx, func() error {
		if err := c.w.WriteQuery(sql); err != nil {
			return &ConnectionError{Addr: c.netConn.RemoteAddr().String(), Err: err}
		}
		var cols []wire.ColumnDescription
		var descs []record.ColumnDescriptor
		var current Result
		var queryErr error
		for {
			msg, err := c.r.ReadMessage()
			if err != nil {
				return &ConnectionError{Addr: c.netConn.RemoteAddr().String(), Err: err}
			}
			switch msg.Type {
			case wire.MsgRowDescription:
				decoded, derr := wire.DecodeRowDescription(msg.Payload)
				if derr != nil {
					return derr
				}
				cols = decoded
				descs = columnDescriptors(cols)
			case wire.MsgDataRow:
				raw, derr := wire.DecodeDataRow(msg.Payload)
				if derr != nil {
					queryErr = derr
					continue
				}
				values, derr := c.decodeRow(cols, raw)
				if derr != nil {
					queryErr = derr
					continue
				}
				current.Rows = append(current.Rows, record.Record{Columns: descs, Values: values})
			case wire.MsgCommandComplete:
				current.Tag = CommandTag(parseCString(msg.Payload))
				results = append(results, current)
				current = Result{}
				cols = nil
			case wire.MsgEmptyQueryResponse:
				results = append(results, Result{})
				current = Result{}
			case wire.MsgNoticeResponse:
				c.handleNotice(msg.Payload)
			case wire.MsgNotificationResp:
				if _, derr := c.decodeNotification(msg.Payload); derr != nil {
					queryErr = derr
				}
			case wire.MsgErrorResponse:
				fields, derr := wire.DecodeErrorFields(msg.Payload)
				if derr == nil {
					queryErr = postgresErrorFromFields(fields)
				} else {
					queryErr = derr
				}
			case wire.MsgReadyForQuery:
				status, derr := decodeReadyForQuery(msg.Payload)
				if derr != nil {
					return derr
				}
				c.phase = phaseFromTxStatus(status)
				return queryErr
			default:
				return &ProtocolError{Phase: "simple-query", Message: fmt.Sprintf("unexpected message %q", msg.Type)}
			}
		}
	})
	return results, err
}
