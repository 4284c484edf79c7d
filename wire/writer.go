package wire

import (
	"bufio"
	"io"
)

// Writer writes frontend messages to the server. It is the client-side
// mirror of the teacher's pgwire.Writer, reusing the same
// begin-message/reserve-length/finish-message buffering approach so a
// burst of pipelined messages (Parse/Bind/Describe/Execute/Sync) can be
// assembled without a syscall per message.
type Writer struct {
	w *bufio.Writer
	b *Builder
}

// NewWriter wraps an io.Writer for writing frontend protocol messages.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w), b: NewBuilder()}
}

// Flush flushes everything written so far to the underlying connection.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// flushMessage writes the builder's current contents through to the
// connection and resets the builder.
func (w *Writer) flushMessage() error {
	_, err := w.w.Write(w.b.Bytes())
	w.b.Reset()
	if err != nil {
		return err
	}
	return w.w.Flush()
}

// WriteStartupMessage sends the untagged StartupMessage that begins
// every connection (after an optional SSL negotiation).
func (w *Writer) WriteStartupMessage(msg StartupMessage) error {
	w.b.Reset()
	at := w.b.ReserveLength()
	w.b.Int32(msg.ProtocolVersion)
	for k, v := range msg.Parameters {
		w.b.CString(k)
		w.b.CString(v)
	}
	w.b.Byte(0)
	w.b.PatchLength(at)
	return w.flushMessage()
}

// WriteSSLRequest sends the magic SSLRequest that precedes StartupMessage
// when TLS is desired.
func (w *Writer) WriteSSLRequest() error {
	w.b.Reset()
	at := w.b.ReserveLength()
	w.b.Int32(SSLRequestCode)
	w.b.PatchLength(at)
	return w.flushMessage()
}

// WriteCancelRequest sends a CancelRequest on a fresh connection,
// independent of the framing used by every other message (it has no
// leading type byte).
func (w *Writer) WriteCancelRequest(backendPID, secretKey int32) error {
	w.b.Reset()
	at := w.b.ReserveLength()
	w.b.Int32(CancelRequestCode)
	w.b.Int32(backendPID)
	w.b.Int32(secretKey)
	w.b.PatchLength(at)
	return w.flushMessage()
}

// WritePasswordMessage sends a cleartext or MD5-hashed password response.
func (w *Writer) WritePasswordMessage(password string) error {
	w.b.Reset()
	at := w.b.BeginMessage(MsgPasswordMessage)
	w.b.CString(password)
	w.b.FinishMessage(at)
	return w.flushMessage()
}

// WriteSASLInitialResponse sends the first SASL exchange message.
func (w *Writer) WriteSASLInitialResponse(mechanism string, data []byte) error {
	w.b.Reset()
	at := w.b.BeginMessage(MsgPasswordMessage)
	w.b.CString(mechanism)
	w.b.LengthPrefixedBytes(data)
	w.b.FinishMessage(at)
	return w.flushMessage()
}

// WriteSASLResponse sends a subsequent SASL exchange message (raw bytes,
// no length prefix per the SASLResponse format).
func (w *Writer) WriteSASLResponse(data []byte) error {
	w.b.Reset()
	at := w.b.BeginMessage(MsgPasswordMessage)
	w.b.RawBytes(data)
	w.b.FinishMessage(at)
	return w.flushMessage()
}

// WriteQuery sends a simple-query-protocol ('Q') message.
func (w *Writer) WriteQuery(sql string) error {
	w.b.Reset()
	at := w.b.BeginMessage(MsgQuery)
	w.b.CString(sql)
	w.b.FinishMessage(at)
	return w.flushMessage()
}

// WriteParse buffers a Parse message. name is empty for the unnamed
// (single-use) statement. paramOIDs may contain 0 entries to let the
// server infer types, or explicit OIDs to pin them.
func (w *Writer) WriteParse(name, sql string, paramOIDs []int32) {
	at := w.b.BeginMessage(MsgParse)
	w.b.CString(name)
	w.b.CString(sql)
	w.b.Int16(int16(len(paramOIDs)))
	for _, oid := range paramOIDs {
		w.b.Int32(oid)
	}
	w.b.FinishMessage(at)
}

// WriteBind buffers a Bind message binding statementName to portalName.
// paramFormats and resultFormats follow the wire shorthand: a single
// entry of 0 or 1 applies to every parameter/column; an entry per
// parameter/column applies individually; zero entries means "all text".
func (w *Writer) WriteBind(portalName, statementName string, paramFormats []int16, params [][]byte, resultFormats []int16) {
	at := w.b.BeginMessage(MsgBind)
	w.b.CString(portalName)
	w.b.CString(statementName)
	w.b.Int16(int16(len(paramFormats)))
	for _, f := range paramFormats {
		w.b.Int16(f)
	}
	w.b.Int16(int16(len(params)))
	for _, p := range params {
		w.b.LengthPrefixedBytes(p)
	}
	w.b.Int16(int16(len(resultFormats)))
	for _, f := range resultFormats {
		w.b.Int16(f)
	}
	w.b.FinishMessage(at)
}

// WriteDescribe buffers a Describe message for a statement or portal.
func (w *Writer) WriteDescribe(target byte, name string) {
	at := w.b.BeginMessage(MsgDescribe)
	w.b.Byte(target)
	w.b.CString(name)
	w.b.FinishMessage(at)
}

// WriteExecute buffers an Execute message. rowLimit of 0 means "fetch
// all rows"; a positive limit arms portal suspension.
func (w *Writer) WriteExecute(portalName string, rowLimit int32) {
	at := w.b.BeginMessage(MsgExecute)
	w.b.CString(portalName)
	w.b.Int32(rowLimit)
	w.b.FinishMessage(at)
}

// WriteClose buffers a Close message for a statement or portal.
func (w *Writer) WriteClose(target byte, name string) {
	at := w.b.BeginMessage(MsgClose)
	w.b.Byte(target)
	w.b.CString(name)
	w.b.FinishMessage(at)
}

// WriteSync buffers the Sync message that terminates a pipelined
// extended-query sequence and asks the server for ReadyForQuery.
func (w *Writer) WriteSync() {
	at := w.b.BeginMessage(MsgSync)
	w.b.FinishMessage(at)
}

// WriteFlush buffers a Flush message, asking the server to send any
// pending output without ending the pipeline.
func (w *Writer) WriteFlush() {
	at := w.b.BeginMessage(MsgFlush)
	w.b.FinishMessage(at)
}

// WriteCopyData buffers one CopyData chunk.
func (w *Writer) WriteCopyData(data []byte) {
	at := w.b.BeginMessage(MsgCopyData)
	w.b.RawBytes(data)
	w.b.FinishMessage(at)
}

// WriteCopyDone buffers CopyDone.
func (w *Writer) WriteCopyDone() {
	at := w.b.BeginMessage(MsgCopyDone)
	w.b.FinishMessage(at)
}

// WriteCopyFail buffers CopyFail with a client-supplied reason string.
func (w *Writer) WriteCopyFail(reason string) {
	at := w.b.BeginMessage(MsgCopyFail)
	w.b.CString(reason)
	w.b.FinishMessage(at)
}

// WriteTerminate buffers Terminate.
func (w *Writer) WriteTerminate() {
	at := w.b.BeginMessage(MsgTerminate)
	w.b.FinishMessage(at)
}

// Pending returns the bytes buffered but not yet flushed to the
// socket, letting a caller pipeline Parse/Bind/Describe/Execute for
// several statements before a single Sync + Flush.
func (w *Writer) Pending() []byte {
	return w.b.Bytes()
}

// FlushPending writes and clears everything buffered by the Write*
// message builders (as opposed to the WriteX immediate-flush helpers
// used during the handshake).
func (w *Writer) FlushPending() error {
	if err := w.flushMessage(); err != nil {
		return err
	}
	return w.w.Flush()
}
