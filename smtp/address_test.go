package smtp

import (
	"net"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseMailbox(t *testing.T) {
	Convey("Testing Parse() on well-formed addresses", t, func() {

		cases := []struct {
			in    string
			human string
		}{
			{"bob@example.com", "bob"},
			{"Bob.Smith@Example.COM", "Bob.Smith"},
			{`"quoted user"@example.com`, "quoted user"},
			{"a@[192.168.0.1]", "a"},
		}

		for _, c := range cases {
			mbox, err := Parse(c.in)
			So(err, ShouldEqual, nil)
			So(mbox.Local.Human, ShouldEqual, c.human)
		}
	})

	Convey("Testing Parse() strips a source route", t, func() {
		mbox, err := Parse("@relay1.example.com,@relay2.example.com:bob@example.com")
		So(err, ShouldEqual, nil)
		So(mbox.Local.SMTP, ShouldEqual, "bob")
		So(mbox.Foreign.Domain, ShouldEqual, "example.com")
	})

	Convey("Testing Parse() canonicalizes postmaster", t, func() {
		mbox, err := Parse("POSTMASTER@example.com")
		So(err, ShouldEqual, nil)
		So(mbox.Local.SMTP, ShouldEqual, "postmaster")
	})

	Convey("Testing Parse() rejects malformed addresses", t, func() {
		bad := []string{
			"",
			"noatsign",
			"trailing@example.com garbage",
			strings.Repeat("a", 65) + "@example.com",
		}
		for _, in := range bad {
			_, err := Parse(in)
			So(err, ShouldNotEqual, nil)
		}
	})

	Convey("Testing Mailbox.String() round-trips a v4 address literal", t, func() {
		mbox := Mailbox{
			Local:   MailboxLocalPart{Human: "bob", SMTP: "bob"},
			Foreign: ForeignPart{IP: net.IPv4(127, 0, 0, 1).To4()},
		}
		So(mbox.String(), ShouldEqual, "bob@[127.0.0.1]")
	})
}

func TestScanDomain(t *testing.T) {
	Convey("Testing scanDomain() accepts dotted subdomains and stops before trailing junk", t, func() {
		n := scanDomain("mail.example.com ")
		So(n, ShouldEqual, len("mail.example.com"))
	})
}
