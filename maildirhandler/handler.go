package maildirhandler

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/sloonz/go-maildir"

	"github.com/posthorn/smtpd/smtp"
)

// Handler delivers accepted transactions into one Maildir per recipient
// under root. It rejects RCPT TO for any mailbox not present in registry,
// and otherwise accepts everything — the registry is the only policy this
// reference embedder implements; a real deployment would layer spam
// filtering, authentication, and quota checks on top the same way the
// teacher's MSA/MTA types layered AUTH and STARTTLS over the bare session.
type Handler struct {
	smtp.NoopHandler

	registry *Registry
	root     string
	log      *logrus.Entry

	peer       net.Addr
	sender     *smtp.Mailbox
	recipients []smtp.Mailbox
}

// New returns a HandlerFactory producing one Handler per connection, each
// sharing the same registry and Maildir root (both read-only after
// construction, so concurrent connections delivering at once is safe).
func New(registry *Registry, root string) smtp.HandlerFactory {
	return func() smtp.Handler {
		return &Handler{registry: registry, root: root, log: logrus.WithField("component", "maildirhandler")}
	}
}

func (h *Handler) OnConnect(peer net.Addr) error {
	h.peer = peer
	h.log.WithField("peer", peer).Debug("connection accepted")
	return nil
}

func (h *Handler) OnSender(rp *smtp.Mailbox) error {
	// MAIL FROM starts a new transaction: drop recipients left over from
	// one that was abandoned by RSET or a failed DATA.
	h.resetEnvelope()
	h.sender = rp
	return nil
}

func (h *Handler) OnRecipient(fp *smtp.Mailbox) error {
	addr := fp.String()
	if !h.registry.Exists(addr) {
		return fmt.Errorf("unknown recipient %s", addr)
	}
	h.recipients = append(h.recipients, *fp)
	return nil
}

// OnTransaction writes the accumulated body to a new message in every
// accepted recipient's Maildir, then clears per-transaction state so the
// same Handler can be reused across RSET/subsequent transactions on the
// same connection (the session resets tx itself after OnTransaction
// returns; this clears the handler's own shadow copy of the envelope).
// OnSender also clears that copy, so recipients of a transaction abandoned
// by RSET are not carried into the next one.
func (h *Handler) OnTransaction(tx *smtp.Transaction) error {
	defer h.resetEnvelope()

	if len(h.recipients) == 0 {
		return fmt.Errorf("no accepted recipients")
	}

	for _, rcpt := range h.recipients {
		if err := h.deliver(rcpt, tx.Body); err != nil {
			return fmt.Errorf("delivering to %s: %w", rcpt.String(), err)
		}
	}
	return nil
}

func (h *Handler) deliver(rcpt smtp.Mailbox, body []byte) error {
	dir := maildir.Maildir(filepath.Join(h.root, sanitizeDirName(rcpt.String())))
	if err := dir.Create(); err != nil {
		return err
	}

	delivery, err := dir.NewDelivery()
	if err != nil {
		return err
	}
	if _, err := delivery.Write(body); err != nil {
		delivery.Abort()
		return err
	}
	if _, err := delivery.Close(); err != nil {
		return err
	}
	return nil
}

func (h *Handler) resetEnvelope() {
	h.sender = nil
	h.recipients = nil
}

// sanitizeDirName keeps a mailbox's "@" out of the path so the per-recipient
// directory stays a single path component on every OS the Maildir lives on.
func sanitizeDirName(mailbox string) string {
	return strings.ReplaceAll(mailbox, "@", "_at_")
}
