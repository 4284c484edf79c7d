package conn

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"pgnative/record"
	"pgnative/types"
	"pgnative/wire"
)

// Cursor is a named portal bound once and fetched in bounded batches via
// repeated Execute(name, batchSize)+Sync, letting a caller stream a
// large result set without holding every row in memory at once.
type Cursor struct {
	conn      *Connection
	name      string
	cols      []wire.ColumnDescription
	batchSize int32
	exhausted bool
	closed    bool
}

// OpenCursor prepares sql, binds args to a named portal, and returns a
// Cursor that yields batchSize rows per Fetch call.
func (c *Connection) OpenCursor(ctx context.Context, sql string, batchSize int32, args ...any) (*Cursor, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	if err := c.requireInTransaction(); err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		return nil, &InterfaceError{Message: "cursor batch size must be positive"}
	}

	var cur *Cursor
	err := c.withContext(ctx, func() error {
		stmt, err := c.prepareStatement(sql, nil)
		if err != nil {
			return err
		}
		if len(args) != len(stmt.paramOIDs) {
			return &InterfaceError{Message: fmt.Sprintf("statement expects %d arguments, got %d", len(stmt.paramOIDs), len(args))}
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
				return &DataError{Column: i, Err: err}
			}
			paramValues[i] = data
			paramFormats[i] = format
		}
		resultFormats := make([]int16, len(stmt.resultCols))
		for i, col := range stmt.resultCols {
			resultFormats[i] = col.FormatCode
		}

		name := "pgnative_portal_" + uuid.NewString()
		c.w.WriteBind(name, stmt.name, paramFormats, paramValues, resultFormats)
		c.w.WriteSync()
		if err := c.w.FlushPending(); err != nil {
			return &ConnectionError{Addr: c.netConn.RemoteAddr().String(), Err: err}
		}
		if err := c.readBindOnly(); err != nil {
			return err
		}

		cur = &Cursor{conn: c, name: name, cols: stmt.resultCols, batchSize: batchSize}
		return nil
	})
	return cur, err
}

// readBindOnly consumes BindComplete plus whatever the server
// interleaves with it, up to the ReadyForQuery a Sync triggers.
func (c *Connection) readBindOnly() error {
	var bindErr error
	for {
		msg, err := c.r.ReadMessage()
		if err != nil {
			return &ConnectionError{Addr: c.netConn.RemoteAddr().String(), Err: err}
		}
		switch msg.Type {
		case wire.MsgBindComplete:
		case wire.MsgNoticeResponse:
			c.handleNotice(msg.Payload)
		case wire.MsgNotificationResp:
			if _, derr := c.decodeNotification(msg.Payload); derr != nil {
				bindErr = derr
			}
		case wire.MsgErrorResponse:
			fields, derr := wire.DecodeErrorFields(msg.Payload)
			if derr == nil {
				bindErr = postgresErrorFromFields(fields)
			} else {
				bindErr = derr
			}
		case wire.MsgReadyForQuery:
			status, derr := decodeReadyForQuery(msg.Payload)
			if derr != nil {
				return derr
			}
			c.phase = phaseFromTxStatus(status)
			return bindErr
		default:
			return &ProtocolError{Phase: "cursor-bind", Message: fmt.Sprintf("unexpected message %q", msg.Type)}
		}
	}
}

// Fetch returns the cursor's next batch of rows, or a nil, empty slice
// once the portal is exhausted.
func (cur *Cursor) Fetch(ctx context.Context) ([]record.Record, error) {
	if cur.closed {
		return nil, &InterfaceError{Message: "cursor is closed"}
	}
	if cur.exhausted {
		return nil, nil
	}
	c := cur.conn
	c.opMu.Lock()
	defer c.opMu.Unlock()

	var rows []record.Record
	err := c.withContext(ctx, func() error {
		c.w.WriteExecute(cur.name, cur.batchSize)
		c.w.WriteSync()
		if err := c.w.FlushPending(); err != nil {
			return &ConnectionError{Addr: c.netConn.RemoteAddr().String(), Err: err}
		}
		result, suspended, err := c.readCursorBatch(cur.cols)
		if err != nil {
			return err
		}
		rows = result
		cur.exhausted = !suspended
		return nil
	})
	return rows, err
}

func (c *Connection) readCursorBatch(cols []wire.ColumnDescription) ([]record.Record, bool, error) {
	var rows []record.Record
	var suspended bool
	var batchErr error
	descs := columnDescriptors(cols)
	for {
		msg, err := c.r.ReadMessage()
		if err != nil {
			return nil, false, &ConnectionError{Addr: c.netConn.RemoteAddr().String(), Err: err}
		}
		switch msg.Type {
		case wire.MsgDataRow:
			raw, derr := wire.DecodeDataRow(msg.Payload)
			if derr != nil {
				batchErr = derr
				continue
			}
			values, derr := c.decodeRow(cols, raw)
			if derr != nil {
				batchErr = derr
				continue
			}
			rows = append(rows, record.Record{Columns: descs, Values: values})
		case wire.MsgPortalSuspended:
			suspended = true
		case wire.MsgCommandComplete:
			suspended = false
		case wire.MsgNoticeResponse:
			c.handleNotice(msg.Payload)
		case wire.MsgNotificationResp:
			if _, derr := c.decodeNotification(msg.Payload); derr != nil {
				batchErr = derr
			}
		case wire.MsgErrorResponse:
			fields, derr := wire.DecodeErrorFields(msg.Payload)
			if derr == nil {
				batchErr = postgresErrorFromFields(fields)
			} else {
				batchErr = derr
			}
		case wire.MsgReadyForQuery:
			status, derr := decodeReadyForQuery(msg.Payload)
			if derr != nil {
				return nil, false, derr
			}
			c.phase = phaseFromTxStatus(status)
			return rows, suspended, batchErr
		default:
			return nil, false, &ProtocolError{Phase: "cursor-fetch", Message: fmt.Sprintf("unexpected message %q", msg.Type)}
		}
	}
}

// Close releases the cursor's portal. Fetching from a closed cursor
// returns InterfaceError.
func (cur *Cursor) Close(ctx context.Context) error {
	if cur.closed {
		return nil
	}
	cur.closed = true
	c := cur.conn
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.withContext(ctx, func() error {
		c.w.WriteClose(wire.TargetPortal, cur.name)
		c.w.WriteSync()
		if err := c.w.FlushPending(); err != nil {
			return &ConnectionError{Addr: c.netConn.RemoteAddr().String(), Err: err}
		}
		return c.readCloseOnly()
	})
}

func (c *Connection) readCloseOnly() error {
	var closeErr error
	for {
		msg, err := c.r.ReadMessage()
		if err != nil {
			return &ConnectionError{Addr: c.netConn.RemoteAddr().String(), Err: err}
		}
		switch msg.Type {
		case wire.MsgCloseComplete:
		case wire.MsgNoticeResponse:
			c.handleNotice(msg.Payload)
		case wire.MsgErrorResponse:
			fields, derr := wire.DecodeErrorFields(msg.Payload)
			if derr == nil {
				closeErr = postgresErrorFromFields(fields)
			} else {
				closeErr = derr
			}
		case wire.MsgReadyForQuery:
			status, derr := decodeReadyForQuery(msg.Payload)
			if derr != nil {
				return derr
			}
			c.phase = phaseFromTxStatus(status)
			return closeErr
		default:
			return &ProtocolError{Phase: "cursor-close", Message: fmt.Sprintf("unexpected message %q", msg.Type)}
		}
	}
}
