// Command smtpd is a demo binary wiring smtp.Acceptor to maildirhandler: a
// JSON config file (address, domain, limits) and a JSON recipient registry
// describe a minimal local-delivery SMTP server.
package main

import (
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/posthorn/smtpd/internal/config"
	"github.com/posthorn/smtpd/maildirhandler"
	"github.com/posthorn/smtpd/smtp"
)

type fileConfig struct {
	IP             string
	Port           int
	Domain         string
	Debug          bool
	MaxMessageSize int
	MaxLineSize    int
	MaxRecipients  int
	MaildirRoot    string
	RecipientsFile string
}

func main() {
	configFile := flag.String("config", "smtpd.json", "path to JSON server config")
	flag.Parse()

	var fc fileConfig
	if err := config.DecodeFile(*configFile, &fc); err != nil {
		logrus.WithError(err).Fatal("could not load config")
	}

	registry, err := maildirhandler.LoadRegistry(fc.RecipientsFile)
	if err != nil {
		logrus.WithError(err).Fatal("could not load recipient registry")
	}

	sessionConfig := smtp.SessionConfig{
		IP:             fc.IP,
		Port:           fc.Port,
		Domain:         fc.Domain,
		Debug:          fc.Debug,
		MaxMessageSize: fc.MaxMessageSize,
		MaxLineSize:    fc.MaxLineSize,
		MaxRecipients:  fc.MaxRecipients,
	}

	acceptor, err := smtp.NewAcceptor(sessionConfig, maildirhandler.New(registry, fc.MaildirRoot))
	if err != nil {
		logrus.WithError(err).Fatal("could not start acceptor")
	}

	logrus.WithFields(logrus.Fields{"ip": fc.IP, "port": fc.Port}).Info("smtpd listening")
	if err := acceptor.Serve(); err != nil {
		logrus.WithError(err).Error("acceptor stopped")
		os.Exit(1)
	}
}
