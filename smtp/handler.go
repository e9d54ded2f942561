package smtp

import "net"

// Handler is the embedder's capability set (§6 of the design doc): every
// semantically meaningful event in a session is surfaced here, and the
// embedder decides acceptance by returning an error or nil.
//
// The teacher's smtper interface (MTA/MSA) is the same shape — a small
// closed set of callbacks an embedding server implements to decide policy
// while this package owns framing, grammar, and state. NoopHandler plays
// the role the teacher's zero-op MTA type plays: embed it and override
// only the callbacks you care about.
type Handler interface {
	// OnConnect is invoked once a TCP connection is accepted, before the
	// greeting is written. Returning an error closes the connection
	// immediately with no reply.
	OnConnect(peer net.Addr) error
	// OnIdentify is invoked when a HELO/EHLO domain parses successfully.
	OnIdentify(domain string) error
	// OnSender is invoked when a MAIL FROM path parses successfully.
	// rp is nil for the null reverse-path ("<>").
	OnSender(rp *Mailbox) error
	// OnRecipient is invoked once per successfully parsed RCPT TO.
	OnRecipient(fp *Mailbox) error
	// OnBodyStart is invoked once, right after the 354 reply, before any
	// body bytes are read.
	OnBodyStart() error
	// OnBodyChunk is invoked once per body line, bytes include the
	// trailing <CRLF> and have had dot-stuffing transparency undone.
	OnBodyChunk(chunk []byte) error
	// OnBodyEnd is invoked once the terminating "." line is seen.
	OnBodyEnd() error
	// OnTransaction is invoked after OnBodyEnd with the completed
	// transaction; some embedders merge this with OnBodyEnd.
	OnTransaction(tx *Transaction) error
}

// HandlerFactory produces a fresh Handler for each accepted connection.
// The source models the embedder as a cloneable object; Go favors a
// factory function over requiring every embedder type to implement a
// cheap Clone, so Acceptor asks for one of these instead.
type HandlerFactory func() Handler

// NoopHandler implements Handler with no-op, always-successful defaults.
// Embed it in a concrete handler type and override only the methods that
// need real behavior.
type NoopHandler struct{}

func (NoopHandler) OnConnect(net.Addr) error            { return nil }
func (NoopHandler) OnIdentify(string) error             { return nil }
func (NoopHandler) OnSender(*Mailbox) error             { return nil }
func (NoopHandler) OnRecipient(*Mailbox) error          { return nil }
func (NoopHandler) OnBodyStart() error                  { return nil }
func (NoopHandler) OnBodyChunk(chunk []byte) error      { return nil }
func (NoopHandler) OnBodyEnd() error                    { return nil }
func (NoopHandler) OnTransaction(tx *Transaction) error { return nil }
