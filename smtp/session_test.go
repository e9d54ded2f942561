package smtp

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	. "github.com/smartystreets/goconvey/convey"
)

// recordingHandler captures every accepted transaction so tests can assert
// on what the core engine handed the embedder.
type recordingHandler struct {
	NoopHandler
	transactions []Transaction
}

func (h *recordingHandler) OnTransaction(tx *Transaction) error {
	h.transactions = append(h.transactions, *tx)
	return nil
}

func newTestSessionConfig() *SessionConfig {
	cfg := &SessionConfig{
		Domain:         "mx.example.com",
		MaxMessageSize: MinMaxMessageSize,
		MaxLineSize:    MinMaxLineSize,
		MaxRecipients:  MinMaxRecipients,
		CommandTimeout: time.Minute,
		DataTimeout:    time.Minute,
	}
	return cfg
}

func readReply(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("reading reply: %v", err)
	}
	return line
}

func TestSessionHappyPath(t *testing.T) {
	Convey("Testing a full HELO/MAIL/RCPT/DATA/QUIT conversation", t, func() {
		client, server := net.Pipe()
		defer client.Close()
		defer server.Close()

		handler := &recordingHandler{}
		s := newSession(server, newTestSessionConfig(), handler, newDispatchTable(), logrus.NewEntry(logrus.New()))
		done := make(chan struct{})
		go func() {
			s.serve()
			close(done)
		}()

		reader := bufio.NewReader(client)

		greeting := readReply(t, reader)
		So(greeting[:3], ShouldEqual, "220")

		client.Write([]byte("HELO client.example.com\r\n"))
		So(readReply(t, reader)[:3], ShouldEqual, "250")

		client.Write([]byte("MAIL FROM:<alice@example.com>\r\n"))
		So(readReply(t, reader)[:3], ShouldEqual, "250")

		client.Write([]byte("RCPT TO:<bob@example.com>\r\n"))
		So(readReply(t, reader)[:3], ShouldEqual, "250")

		client.Write([]byte("DATA\r\n"))
		So(readReply(t, reader)[:3], ShouldEqual, "354")

		client.Write([]byte("Subject: hi\r\n"))
		client.Write([]byte("\r\n"))
		client.Write([]byte("body text\r\n"))
		client.Write([]byte(".\r\n"))
		So(readReply(t, reader)[:3], ShouldEqual, "250")

		client.Write([]byte("QUIT\r\n"))
		So(readReply(t, reader)[:3], ShouldEqual, "221")

		<-done

		So(len(handler.transactions), ShouldEqual, 1)
		tx := handler.transactions[0]
		So(tx.ReversePath.String(), ShouldEqual, "alice@example.com")
		So(len(tx.ForwardPaths), ShouldEqual, 1)
		So(tx.ForwardPaths[0].String(), ShouldEqual, "bob@example.com")
		So(string(tx.Body), ShouldEqual, "Subject: hi\r\n\r\nbody text\r\n")
	})
}

func TestSessionBadSequence(t *testing.T) {
	Convey("Testing RCPT before MAIL is a 503", t, func() {
		client, server := net.Pipe()
		defer client.Close()
		defer server.Close()

		handler := &recordingHandler{}
		s := newSession(server, newTestSessionConfig(), handler, newDispatchTable(), logrus.NewEntry(logrus.New()))
		done := make(chan struct{})
		go func() {
			s.serve()
			close(done)
		}()

		reader := bufio.NewReader(client)
		readReply(t, reader) // greeting

		client.Write([]byte("RCPT TO:<bob@example.com>\r\n"))
		So(readReply(t, reader)[:3], ShouldEqual, "503")

		client.Write([]byte("QUIT\r\n"))
		readReply(t, reader)
		<-done
	})
}

func TestSessionUnknownCommand(t *testing.T) {
	Convey("Testing an unrecognized command is a 500", t, func() {
		client, server := net.Pipe()
		defer client.Close()
		defer server.Close()

		handler := &recordingHandler{}
		s := newSession(server, newTestSessionConfig(), handler, newDispatchTable(), logrus.NewEntry(logrus.New()))
		done := make(chan struct{})
		go func() {
			s.serve()
			close(done)
		}()

		reader := bufio.NewReader(client)
		readReply(t, reader) // greeting

		client.Write([]byte("BOGUS\r\n"))
		So(readReply(t, reader)[:3], ShouldEqual, "500")

		client.Write([]byte("QUIT\r\n"))
		readReply(t, reader)
		<-done
	})
}
