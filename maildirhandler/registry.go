// Package maildirhandler is a reference smtp.Handler: it accepts mail only
// for locally registered recipients and delivers accepted transactions to
// a per-recipient Maildir (github.com/sloonz/go-maildir), the concrete
// answer to spec.md §6's "body handoff to durable storage is the
// embedder's job".
//
// Adapted from the teacher's user package (user.User, user.UserDB) and
// helpers.DecodeFile: the same "name -> local record" JSON-backed registry
// idea, keyed here by SMTP mailbox string instead of a bare username, and
// moved under this package since it's now exercised only by the concrete
// embedder rather than sitting as a standalone, unwired model type.
package maildirhandler

import (
	"errors"
	"strings"

	"github.com/posthorn/smtpd/internal/config"
)

// ErrRecipientExists is returned by Registry.Add for a mailbox already
// present.
var ErrRecipientExists = errors.New("maildirhandler: recipient already exists")

// ErrRecipientNotFound is returned by Registry.Get for an unknown mailbox.
var ErrRecipientNotFound = errors.New("maildirhandler: recipient not found")

// Recipient is a locally deliverable mailbox.
type Recipient struct {
	// Mailbox is the SMTP wire form of the address, e.g. "alice@example.com".
	Mailbox string
	// DisplayName is a human label; Handler does not use it for policy or
	// delivery.
	DisplayName string
}

// Registry is the set of mailboxes this handler will accept RCPT TO for.
type Registry struct {
	Recipients map[string]Recipient
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{Recipients: make(map[string]Recipient)}
}

func normalize(mailbox string) string {
	return strings.ToLower(mailbox)
}

// Exists reports whether mailbox is registered.
func (r *Registry) Exists(mailbox string) bool {
	_, found := r.Recipients[normalize(mailbox)]
	return found
}

// Get returns the Recipient registered for mailbox.
func (r *Registry) Get(mailbox string) (Recipient, error) {
	rec, found := r.Recipients[normalize(mailbox)]
	if !found {
		return Recipient{}, ErrRecipientNotFound
	}
	return rec, nil
}

// Add registers rec, failing if its mailbox is already present.
func (r *Registry) Add(rec Recipient) error {
	if r.Recipients == nil {
		r.Recipients = make(map[string]Recipient)
	}
	key := normalize(rec.Mailbox)
	if _, found := r.Recipients[key]; found {
		return ErrRecipientExists
	}
	r.Recipients[key] = rec
	return nil
}

// Save writes the registry to file as indented JSON.
func (r *Registry) Save(file string) error {
	return config.EncodeFile(file, r)
}

// LoadRegistry reads a Registry previously written by Save.
func LoadRegistry(file string) (*Registry, error) {
	r := &Registry{}
	if err := config.DecodeFile(file, r); err != nil {
		return nil, err
	}
	if r.Recipients == nil {
		r.Recipients = make(map[string]Recipient)
	}
	return r, nil
}
