package smtp

import (
	"fmt"
	"strings"
)

// StatusCode is an SMTP reply code (RFC 5321 §4.2).
type StatusCode int

// The full reply catalogue used by the core engine (§6).
const (
	StatusReady               StatusCode = 220
	StatusClosing             StatusCode = 221
	StatusOK                  StatusCode = 250
	StatusCannotVerify        StatusCode = 252
	StatusStartMailInput      StatusCode = 354
	StatusTooManyRecipients   StatusCode = 452
	StatusCommandUnrecognized StatusCode = 500
	StatusSyntaxErrorParam    StatusCode = 501
	StatusNotImplemented      StatusCode = 502
	StatusBadSequence         StatusCode = 503
	StatusMailboxUnavailable  StatusCode = 550
	StatusAddressInvalid      StatusCode = 553
	StatusTooMuchData         StatusCode = 552
	StatusTransactionFailed   StatusCode = 554
)

// replyLine formats a single-line reply: "NNN text".
func replyLine(code StatusCode, msg string) string {
	return fmt.Sprintf("%d %s", code, msg)
}

// replyMultiLine formats a multi-line reply: all but the last line use
// "NNN-text", the last uses "NNN text". The caller's FramedStream.WriteLine
// appends the final <CRLF>; the embedded "\r\n" between intermediate lines
// is built here, the same split the teacher's writeMultiLine/MultiAnswer
// use.
func replyMultiLine(code StatusCode, lines ...string) string {
	if len(lines) == 0 {
		return fmt.Sprintf("%d", code)
	}
	var b strings.Builder
	for _, l := range lines[:len(lines)-1] {
		fmt.Fprintf(&b, "%d-%s\r\n", code, l)
	}
	fmt.Fprintf(&b, "%d %s", code, lines[len(lines)-1])
	return b.String()
}
