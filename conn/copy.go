package conn

import (
	"context"
	"fmt"
	"io"

	"pgnative/wire"
)

// CopyTo runs a COPY ... TO STDOUT statement and streams every
// CopyData chunk the server sends to w, returning the command tag once
// the copy completes.
func (c *Connection) CopyTo(ctx context.Context, sql string, w io.Writer) (CommandTag, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	if err := c.requireIdle(); err != nil {
		return "", err
	}

	var tag CommandTag
	err := c.withContext(ctx, func() error {
		if err := c.w.WriteQuery(sql); err != nil {
			return &ConnectionError{Addr: c.netConn.RemoteAddr().String(), Err: err}
		}
		var copyErr error
		for {
			msg, err := c.r.ReadMessage()
			if err != nil {
				return &ConnectionError{Addr: c.netConn.RemoteAddr().String(), Err: err}
			}
			switch msg.Type {
			case wire.MsgCopyOutResponse:
				c.phase = PhaseCopyOut
			case wire.MsgCopyData:
				if _, werr := w.Write(msg.Payload); werr != nil && copyErr == nil {
					copyErr = werr
				}
			case wire.MsgCopyDone:
			case wire.MsgCommandComplete:
				tag = CommandTag(parseCString(msg.Payload))
			case wire.MsgNoticeResponse:
				c.handleNotice(msg.Payload)
			case wire.MsgErrorResponse:
				fields, derr := wire.DecodeErrorFields(msg.Payload)
				if derr == nil {
					copyErr = postgresErrorFromFields(fields)
				} else {
					copyErr = derr
				}
			case wire.MsgReadyForQuery:
				status, derr := decodeReadyForQuery(msg.Payload)
				if derr != nil {
					return derr
				}
				c.phase = phaseFromTxStatus(status)
				return copyErr
			default:
				return &ProtocolError{Phase: "copy-to", Message: fmt.Sprintf("unexpected message %q", msg.Type)}
			}
		}
	})
	return tag, err
}

// CopyFrom runs a COPY ... FROM STDIN statement, streaming r to the
// server as CopyData chunks. A read error from r aborts the copy with
// CopyFail rather than leaving the server waiting indefinitely.
func (c *Connection) CopyFrom(ctx context.Context, sql string, r io.Reader) (CommandTag, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	if err := c.requireIdle(); err != nil {
		return "", err
	}

	var tag CommandTag
	err := c.withContext(ctx, func() error {
		if err := c.w.WriteQuery(sql); err != nil {
			return &ConnectionError{Addr: c.netConn.RemoteAddr().String(), Err: err}
		}
		if err := c.awaitCopyInResponse(); err != nil {
			return err
		}
		c.phase = PhaseCopyIn

		buf := make([]byte, 64*1024)
		var readErr error
		for {
			n, rerr := r.Read(buf)
			if n > 0 {
				c.w.WriteCopyData(buf[:n])
				if ferr := c.w.FlushPending(); ferr != nil {
					return &ConnectionError{Addr: c.netConn.RemoteAddr().String(), Err: ferr}
				}
			}
			if rerr == io.EOF {
				break
			}
			if rerr != nil {
				readErr = rerr
				break
			}
		}
		if readErr != nil {
			c.w.WriteCopyFail(readErr.Error())
		} else {
			c.w.WriteCopyDone()
		}
		if err := c.w.FlushPending(); err != nil {
			return &ConnectionError{Addr: c.netConn.RemoteAddr().String(), Err: err}
		}

		commandTag, copyErr := c.awaitCopyDone()
		tag = commandTag
		if readErr != nil && copyErr == nil {
			return readErr
		}
		return copyErr
	})
	return tag, err
}

func (c *Connection) awaitCopyInResponse() error {
	for {
		msg, err := c.r.ReadMessage()
		if err != nil {
			return &ConnectionError{Addr: c.netConn.RemoteAddr().String(), Err: err}
		}
		switch msg.Type {
		case wire.MsgCopyInResponse:
			return nil
		case wire.MsgNoticeResponse:
			c.handleNotice(msg.Payload)
		case wire.MsgErrorResponse:
			fields, derr := wire.DecodeErrorFields(msg.Payload)
			if derr != nil {
				return derr
			}
			c.recoverFromError()
			return postgresErrorFromFields(fields)
		default:
			return &ProtocolError{Phase: "copy-from", Message: fmt.Sprintf("unexpected message %q awaiting CopyInResponse", msg.Type)}
		}
	}
}

func (c *Connection) awaitCopyDone() (CommandTag, error) {
	var tag CommandTag
	var copyErr error
	for {
		msg, err := c.r.ReadMessage()
		if err != nil {
			return "", &ConnectionError{Addr: c.netConn.RemoteAddr().String(), Err: err}
		}
		switch msg.Type {
		case wire.MsgCommandComplete:
			tag = CommandTag(parseCString(msg.Payload))
		case wire.MsgNoticeResponse:
			c.handleNotice(msg.Payload)
		case wire.MsgErrorResponse:
			fields, derr := wire.DecodeErrorFields(msg.Payload)
			if derr == nil {
				copyErr = postgresErrorFromFields(fields)
			} else {
				copyErr = derr
			}
		case wire.MsgReadyForQuery:
			status, derr := decodeReadyForQuery(msg.Payload)
			if derr != nil {
				return "", derr
			}
			c.phase = phaseFromTxStatus(status)
			return tag, copyErr
		default:
			return "", &ProtocolError{Phase: "copy-from", Message: fmt.Sprintf("unexpected message %q", msg.Type)}
		}
	}
}
