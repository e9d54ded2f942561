package smtp

import (
	"errors"
	"fmt"
	"strings"
)

// handleHELO implements HELO (§4.5). EHLO shares the same validation and
// state transition, differing only in the reply.
func handleHELO(s *session, arg string) commandResult {
	domain := strings.TrimSpace(arg)
	if domain == "" {
		return commandResult{reply: replyLine(StatusSyntaxErrorParam, "Domain name not provided")}
	}
	if n := scanDomain(domain); n != len(domain) {
		return commandResult{reply: replyLine(StatusSyntaxErrorParam, "Domain name is invalid")}
	}
	if err := s.handler.OnIdentify(domain); err != nil {
		return commandResult{reply: replyLine(StatusMailboxUnavailable, fmt.Sprintf("Identification rejected: %v", err))}
	}
	s.tx.Domain = domain
	s.tx.State = StateHelo
	return commandResult{reply: replyLine(StatusOK, "OK")}
}

// handleEHLO is HELO plus a minimal capability advertisement (SIZE is the
// only extension spec.md's Non-goals leave in scope).
func handleEHLO(s *session, arg string) commandResult {
	domain := strings.TrimSpace(arg)
	if domain == "" {
		return commandResult{reply: replyLine(StatusSyntaxErrorParam, "Domain name not provided")}
	}
	if n := scanDomain(domain); n != len(domain) {
		return commandResult{reply: replyLine(StatusSyntaxErrorParam, "Domain name is invalid")}
	}
	if err := s.handler.OnIdentify(domain); err != nil {
		return commandResult{reply: replyLine(StatusMailboxUnavailable, fmt.Sprintf("Identification rejected: %v", err))}
	}
	s.tx.Domain = domain
	s.tx.State = StateHelo
	return commandResult{reply: replyMultiLine(StatusOK, s.config.Domain,
		fmt.Sprintf("SIZE %d", s.config.MaxMessageSize))}
}

func handleMAIL(s *session, arg string) commandResult {
	raw := strings.TrimSpace(arg)
	inner, ok := unwrapPath(raw)
	if !ok {
		return commandResult{reply: replyLine(StatusSyntaxErrorParam, "Syntax error in MAIL command")}
	}

	var mbox *Mailbox
	if inner != "" {
		m, err := Parse(inner)
		if err != nil {
			return commandResult{reply: replyLine(StatusAddressInvalid, fmt.Sprintf("Email address invalid: %v", err))}
		}
		mbox = &m
	}

	if err := s.handler.OnSender(mbox); err != nil {
		return commandResult{reply: replyLine(StatusMailboxUnavailable, fmt.Sprintf("Sender rejected: %v", err))}
	}
	s.tx.ReversePath = mbox
	s.tx.State = StateMail
	return commandResult{reply: replyLine(StatusOK, "OK")}
}

func handleRCPT(s *session, arg string) commandResult {
	raw := strings.TrimSpace(arg)
	inner, ok := unwrapPath(raw)
	if !ok {
		return commandResult{reply: replyLine(StatusSyntaxErrorParam, "Syntax error in RCPT command")}
	}
	if inner == "" {
		return commandResult{reply: replyLine(StatusAddressInvalid, "Email address invalid: null recipient not allowed")}
	}

	m, err := Parse(inner)
	if err != nil {
		return commandResult{reply: replyLine(StatusAddressInvalid, fmt.Sprintf("Email address invalid: %v", err))}
	}

	if len(s.tx.ForwardPaths) >= s.config.MaxRecipients {
		return commandResult{reply: replyLine(StatusTooManyRecipients, "Too many recipients")}
	}

	if err := s.handler.OnRecipient(&m); err != nil {
		return commandResult{reply: replyLine(StatusMailboxUnavailable, fmt.Sprintf("Recipient rejected: %v", err))}
	}
	s.tx.ForwardPaths = append(s.tx.ForwardPaths, m)
	s.tx.State = StateRcpt
	return commandResult{reply: replyLine(StatusOK, "OK")}
}

// unwrapPath strips the surrounding angle brackets from a MAIL/RCPT path
// argument, reporting ok=false if they aren't both present.
func unwrapPath(raw string) (inner string, ok bool) {
	if len(raw) < 2 || raw[0] != '<' || raw[len(raw)-1] != '>' {
		return "", false
	}
	return raw[1 : len(raw)-1], true
}

func handleDATA(s *session, arg string) commandResult {
	if strings.TrimSpace(arg) != "" {
		return commandResult{reply: replyLine(StatusSyntaxErrorParam, "DATA command takes no arguments")}
	}

	s.tx.State = StateData
	if err := s.stream.WriteLine(replyLine(StatusStartMailInput, "Start mail input; end with <CRLF>.<CRLF>")); err != nil {
		return commandResult{fatal: true}
	}

	if err := s.handler.OnBodyStart(); err != nil {
		s.drainBody()
		s.tx.Reset()
		return commandResult{reply: replyLine(StatusTransactionFailed, "Transaction failed")}
	}

	onChunk := func(chunk []byte) error {
		s.tx.Body = append(s.tx.Body, chunk...)
		return s.handler.OnBodyChunk(chunk)
	}

	err := s.stream.ReadBody(s.config.MaxMessageSize, s.config.DataTimeout, onChunk)
	if err != nil {
		switch {
		case errors.Is(err, ErrTooMuchData):
			s.tx.Reset()
			return commandResult{reply: replyLine(StatusTooMuchData,
				fmt.Sprintf("Too much mail data, max %d bytes", s.config.MaxMessageSize))}
		case errors.Is(err, ErrLineTooLong):
			s.tx.Reset()
			return commandResult{reply: replyLine(StatusTransactionFailed, "Transaction failed")}
		default:
			return commandResult{fatal: true}
		}
	}

	if err := s.handler.OnBodyEnd(); err != nil {
		s.tx.Reset()
		return commandResult{reply: replyLine(StatusTransactionFailed, "Transaction failed")}
	}
	if err := s.handler.OnTransaction(s.tx); err != nil {
		s.tx.Reset()
		return commandResult{reply: replyLine(StatusTransactionFailed, "Transaction failed")}
	}

	s.tx.Reset()
	return commandResult{reply: replyLine(StatusOK, "OK")}
}

func handleRSET(s *session, arg string) commandResult {
	if strings.TrimSpace(arg) != "" {
		return commandResult{reply: replyLine(StatusSyntaxErrorParam, "RSET command takes no arguments")}
	}
	s.tx.Reset()
	return commandResult{reply: replyLine(StatusOK, "OK")}
}

// handleVRFY never confirms or denies a mailbox (RFC 5321 §3.5): sites
// that disable verification MUST return 252 rather than anything that
// could be mistaken for a real answer.
func handleVRFY(s *session, arg string) commandResult {
	return commandResult{reply: replyLine(StatusCannotVerify, "Cannot VRFY user")}
}

func handleEXPN(s *session, arg string) commandResult {
	return commandResult{reply: replyLine(StatusCannotVerify, "Cannot EXPN mailing list")}
}

func handleHELP(s *session, arg string) commandResult {
	return commandResult{reply: replyLine(214, "See RFC 5321 for command syntax")}
}

// handleNOOP always replies 250 OK: by the time dispatch() has matched the
// "NOOP" entry, bareWord has already guaranteed arg is "" or space-prefixed
// (RFC 5321 §4.1.1.9 — NOOP takes an optional argument that is ignored). A
// glued command like "NOOPfoo" never reaches here; it falls through to the
// generic 500 in dispatch().
func handleNOOP(s *session, arg string) commandResult {
	return commandResult{reply: replyLine(StatusOK, "OK")}
}

func handleQUIT(s *session, arg string) commandResult {
	return commandResult{reply: replyLine(StatusClosing, s.config.Domain), closeAfter: true}
}
