package conn

import (
	"context"
	"fmt"
	"strings"

	"pgnative/wire"
)

// Notification is one asynchronous NotificationResponse delivered by a
// channel a connection is LISTENing on.
type Notification struct {
	PID     int32
	Channel string
	Payload string
}

// AddListener issues LISTEN for channel and registers fn to be invoked
// (from WaitForNotification) whenever that channel fires. Multiple
// handlers may be registered for the same channel.
func (c *Connection) AddListener(ctx context.Context, channel string, fn func(Notification)) error {
	if _, err := c.Execute(ctx, "LISTEN "+quoteIdentifier(channel)); err != nil {
		return err
	}
	c.listenMu.Lock()
	c.notifyHandlers[channel] = append(c.notifyHandlers[channel], fn)
	c.listenMu.Unlock()
	return nil
}

// RemoveListener issues UNLISTEN for channel and drops its handlers.
func (c *Connection) RemoveListener(ctx context.Context, channel string) error {
	if _, err := c.Execute(ctx, "UNLISTEN "+quoteIdentifier(channel)); err != nil {
		return err
	}
	c.listenMu.Lock()
	delete(c.notifyHandlers, channel)
	c.listenMu.Unlock()
	return nil
}

// WaitForNotification blocks until a NotificationResponse arrives, ctx
// is cancelled, or the connection errors. It is the only operation that
// reads the socket while otherwise idle, so it must not be called
// concurrently with Execute/Fetch/etc. on the same Connection.
func (c *Connection) WaitForNotification(ctx context.Context) (Notification, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	var note Notification
	err := c.withContext(ctx, func() error {
		for {
			msg, err := c.r.ReadMessage()
			if err != nil {
				return &ConnectionError{Addr: c.netConn.RemoteAddr().String(), Err: err}
			}
			switch msg.Type {
			case wire.MsgNotificationResp:
				n, derr := c.decodeNotification(msg.Payload)
				if derr != nil {
					return derr
				}
				note = n
				return nil
			case wire.MsgNoticeResponse:
				c.handleNotice(msg.Payload)
			case wire.MsgParameterStatus:
				name, value, derr := wire.DecodeParameterStatus(msg.Payload)
				if derr == nil {
					c.params[name] = value
				}
			case wire.MsgErrorResponse:
				fields, derr := wire.DecodeErrorFields(msg.Payload)
				if derr != nil {
					return derr
				}
				return postgresErrorFromFields(fields)
			default:
				return &ProtocolError{Phase: "listen", Message: fmt.Sprintf("unexpected message %q while idle", msg.Type)}
			}
		}
	})
	return note, err
}

func (c *Connection) decodeNotification(payload []byte) (Notification, error) {
	pid, channel, extra, err := wire.DecodeNotificationResponse(payload)
	if err != nil {
		return Notification{}, err
	}
	note := Notification{PID: pid, Channel: channel, Payload: extra}
	c.dispatchNotification(note)
	return note, nil
}

func (c *Connection) dispatchNotification(note Notification) {
	c.listenMu.Lock()
	handlers := append([]func(Notification){}, c.notifyHandlers[note.Channel]...)
	c.listenMu.Unlock()
	for _, fn := range handlers {
		if fn != nil {
			fn(note)
		}
	}
}

// quoteIdentifier double-quotes channel/identifier names for use in a
// statement built by string concatenation (LISTEN/UNLISTEN/NOTIFY don't
// accept a bind parameter in place of the channel name), doubling any
// embedded quote per SQL identifier-quoting rules.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
