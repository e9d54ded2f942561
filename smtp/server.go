package smtp

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

// Floors below which SessionConfig.Validate rejects a configuration (§3,
// §4.7).
const (
	MinMaxMessageSize = 64 * 1024
	MinMaxLineSize    = 1001
	MinMaxRecipients  = 100

	// DefaultCommandTimeout is the idle timeout applied to each command
	// read (RFC 5321 §4.5.3.2 requires at least 5 minutes).
	DefaultCommandTimeout = 5 * time.Minute
	// DefaultDataTimeout is the idle timeout applied to each body-line
	// read during DATA.
	DefaultDataTimeout = 5 * time.Minute
)

// ErrBelowFloor is wrapped by Validate when a configured limit is below
// its protocol-mandated floor.
var ErrBelowFloor = errors.New("smtp: configuration value below floor")

// SessionConfig is the immutable, process-lifetime configuration shared
// by every session (§3, §6).
type SessionConfig struct {
	IP     string
	Port   int
	Domain string
	Debug  bool

	MaxMessageSize int
	MaxLineSize    int
	MaxRecipients  int

	// CommandTimeout bounds each command-line read; zero means
	// DefaultCommandTimeout.
	CommandTimeout time.Duration
	// DataTimeout bounds each body-line read during DATA; zero means
	// DefaultDataTimeout. Per §5, this deadline applies per read_line
	// call, not to the cumulative body duration.
	DataTimeout time.Duration
}

// Validate checks the configured limits against their protocol floors and
// fills in zero-valued timeouts with their defaults.
func (c *SessionConfig) Validate() error {
	if c.MaxMessageSize < MinMaxMessageSize {
		return fmt.Errorf("%w: max_message_size %d < %d", ErrBelowFloor, c.MaxMessageSize, MinMaxMessageSize)
	}
	if c.MaxLineSize < MinMaxLineSize {
		return fmt.Errorf("%w: max_line_size %d < %d", ErrBelowFloor, c.MaxLineSize, MinMaxLineSize)
	}
	if c.MaxRecipients < MinMaxRecipients {
		return fmt.Errorf("%w: max_recipients %d < %d", ErrBelowFloor, c.MaxRecipients, MinMaxRecipients)
	}
	if c.CommandTimeout == 0 {
		c.CommandTimeout = DefaultCommandTimeout
	}
	if c.DataTimeout == 0 {
		c.DataTimeout = DefaultDataTimeout
	}
	return nil
}

// ErrBindFailed is wrapped when the listening socket cannot be created.
// Go's net.Listen conflates what RFC-era APIs split into bind(2) and
// listen(2), so the core does not distinguish BindFailed from
// ListenFailed the way spec.md's §4.7 names them separately.
var ErrBindFailed = errors.New("smtp: bind failed")

// Acceptor binds a TCP listener and spawns one session per accepted
// connection (§4.7). The listener and dispatch table are built once at
// construction and are read-only afterward, so they're safe to share
// across the goroutines Serve spawns without further synchronization.
type Acceptor struct {
	config     SessionConfig
	newHandler HandlerFactory
	listener   net.Listener
	table      *dispatchTable
	log        *logrus.Entry
}

// NewAcceptor validates config, binds and listens on config.IP:config.Port,
// and returns an Acceptor ready to Serve. newHandler is called once per
// accepted connection to produce that connection's Handler.
func NewAcceptor(config SessionConfig, newHandler HandlerFactory) (*Acceptor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if newHandler == nil {
		newHandler = func() Handler { return NoopHandler{} }
	}

	if config.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	addr := fmt.Sprintf("%s:%d", config.IP, config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBindFailed, addr, err)
	}

	return &Acceptor{
		config:     config,
		newHandler: newHandler,
		listener:   ln,
		table:      newDispatchTable(),
		log:        logrus.WithField("component", "smtp"),
	}, nil
}

// Serve accepts connections until the listener is closed or Accept
// returns a non-temporary error, spawning one goroutine per connection. A
// panic or error in a single session never reaches the acceptor loop or
// any other session.
func (a *Acceptor) Serve() error {
	defer a.listener.Close()
	for {
		conn, err := a.listener.Accept()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Temporary() {
				a.log.WithError(err).Warn("temporary accept error")
				continue
			}
			return err
		}
		go a.handleConn(conn)
	}
}

// Close stops accepting new connections.
func (a *Acceptor) Close() error {
	return a.listener.Close()
}

func (a *Acceptor) handleConn(conn net.Conn) {
	defer conn.Close()
	defer func() {
		if r := recover(); r != nil {
			a.log.WithField("peer", conn.RemoteAddr()).Errorf("session panic: %v", r)
		}
	}()

	log := a.log.WithField("peer", conn.RemoteAddr())
	log.Debug("accepted connection")
	s := newSession(conn, &a.config, a.newHandler(), a.table, log)
	s.serve()
	log.Debug("connection closed")
}
