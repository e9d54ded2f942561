package maildirhandler

import (
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRegistry(t *testing.T) {
	Convey("Testing Registry.Add() and Get()", t, func() {
		reg := NewRegistry()

		err := reg.Add(Recipient{Mailbox: "Alice@Example.com", DisplayName: "Alice"})
		So(err, ShouldEqual, nil)

		rec, err := reg.Get("alice@example.com")
		So(err, ShouldEqual, nil)
		So(rec.DisplayName, ShouldEqual, "Alice")

		So(reg.Exists("alice@example.com"), ShouldEqual, true)
		So(reg.Exists("bob@example.com"), ShouldEqual, false)

		err = reg.Add(Recipient{Mailbox: "alice@example.com"})
		So(err, ShouldEqual, ErrRecipientExists)
	})

	Convey("Testing Get() on an unregistered mailbox", t, func() {
		reg := NewRegistry()
		_, err := reg.Get("nobody@example.com")
		So(err, ShouldEqual, ErrRecipientNotFound)
	})

	Convey("Testing Save() then LoadRegistry() round-trips a registry", t, func() {
		dir := t.TempDir()
		file := filepath.Join(dir, "recipients.json")

		reg := NewRegistry()
		reg.Add(Recipient{Mailbox: "bob@example.com", DisplayName: "Bob"})

		err := reg.Save(file)
		So(err, ShouldEqual, nil)

		loaded, err := LoadRegistry(file)
		So(err, ShouldEqual, nil)
		So(loaded.Exists("bob@example.com"), ShouldEqual, true)
	})
}
