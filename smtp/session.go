package smtp

import (
	"errors"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// session drives a single accepted connection through greeting, command
// loop, and termination (§4.6). It is created once per connection by
// Acceptor and never shared.
type session struct {
	conn    net.Conn
	stream  *FramedStream
	config  *SessionConfig
	handler Handler
	table   *dispatchTable
	tx      *Transaction
	log     *logrus.Entry
}

func newSession(conn net.Conn, config *SessionConfig, handler Handler, table *dispatchTable, log *logrus.Entry) *session {
	return &session{
		conn:    conn,
		stream:  NewFramedStream(conn, config.MaxLineSize),
		config:  config,
		handler: handler,
		table:   table,
		tx:      &Transaction{State: StateInit},
		log:     log,
	}
}

// serve runs the session to completion: greeting, then the main command
// loop, closing the connection on QUIT, a fatal I/O error, or handler
// rejection of the connection itself.
func (s *session) serve() {
	if err := s.handler.OnConnect(s.conn.RemoteAddr()); err != nil {
		s.log.WithError(err).Debug("connection rejected by handler")
		return
	}

	if err := s.stream.WriteLine(replyLine(StatusReady, s.config.Domain)); err != nil {
		s.log.WithError(err).Debug("failed writing greeting")
		return
	}

	for {
		s.conn.SetReadDeadline(time.Now().Add(s.config.CommandTimeout))
		line, err := s.stream.ReadLine()
		if err != nil {
			if errors.Is(err, ErrLineTooLong) {
				msg := replyLine(StatusCommandUnrecognized, tooLongMsg(s.config.MaxLineSize))
				if werr := s.stream.WriteLine(msg); werr != nil {
					s.log.WithError(werr).Debug("failed writing line-too-long reply")
					return
				}
				continue
			}
			if !errors.Is(err, io.EOF) {
				s.log.WithError(err).Debug("read error")
			}
			return
		}

		result := s.table.dispatch(s, string(line))
		if result.fatal {
			s.log.Debug("closing connection after fatal I/O error")
			return
		}
		if result.reply != "" {
			if err := s.stream.WriteLine(result.reply); err != nil {
				s.log.WithError(err).Debug("write error")
				return
			}
		}
		if result.closeAfter {
			return
		}
	}
}

func tooLongMsg(maxLineSize int) string {
	return "Command line too long, max " + strconv.Itoa(maxLineSize) + " bytes"
}

// drainBody best-effort consumes the body lines still in flight after the
// embedder has already rejected OnBodyStart, so the next line read from
// the wire is the peer's next command rather than a stray body line.
func (s *session) drainBody() {
	_ = s.stream.ReadBody(s.config.MaxMessageSize, s.config.DataTimeout, func([]byte) error { return nil })
}
