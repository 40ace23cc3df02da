package mailer

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"sjsage522/jobworker/logger"
	apperrors "sjsage522/jobworker/pkg/errors"
)

// implicitTLSPort is the SMTPS port; other ports use STARTTLS when offered
const implicitTLSPort = 465

const dialTimeout = 30 * time.Second

// Sender delivers a digest
type Sender interface {
	Send(ctx context.Context, subject, body string) error
}

// SMTPSender sends mail through an authenticated SMTP server
type SMTPSender struct {
	host      string
	port      int
	from      string
	to        string
	password  string
	tlsConfig *tls.Config
	log       *logger.Logger
}

// NewSMTPSender creates a new SMTP sender
func NewSMTPSender(host string, port int, from, to, password string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		from:      from,
		to:        to,
		password:  password,
		tlsConfig: &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12},
		log:       logger.ForMailer(),
	}
}

// Send delivers one plain text message
func (s *SMTPSender) Send(ctx context.Context, subject, body string) error {
	from, err := parseAddress(s.from)
	if err != nil {
		return apperrors.NewMail("invalid sender address", err)
	}
	to, err := parseAddress(s.to)
	if err != nil {
		return apperrors.NewMail("invalid recipient address", err)
	}

	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	conn, err := s.dial(ctx, addr)
	if err != nil {
		return apperrors.NewMail("connecting to "+addr, err)
	}

	client := smtp.NewClient(conn)
	defer client.Close()

	if s.port != implicitTLSPort {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(s.tlsConfig); err != nil {
				return apperrors.NewMail("starttls", err)
			}
		}
	}

	if s.password != "" {
		if err := client.Auth(sasl.NewPlainClient("", from.Address, s.password)); err != nil {
			return apperrors.NewMail("authentication", err)
		}
	}

	if err := client.Mail(from.Address, nil); err != nil {
		return apperrors.NewMail("MAIL FROM", err)
	}
	if err := client.Rcpt(to.Address, nil); err != nil {
		return apperrors.NewMail("RCPT TO", err)
	}

	w, err := client.Data()
	if err != nil {
		return apperrors.NewMail("DATA", err)
	}
	if err := writeMessage(w, from, to, subject, body, time.Now()); err != nil {
		w.Close()
		return apperrors.NewMail("writing message", err)
	}
	if err := w.Close(); err != nil {
		return apperrors.NewMail("finishing message", err)
	}

	if err := client.Quit(); err != nil {
		s.log.Warn().Err(err).Msg("QUIT failed after delivery")
	}

	s.log.Info().Str("to", to.Address).Str("subject", subject).Msg("Digest sent")
	return nil
}

func (s *SMTPSender) dial(ctx context.Context, addr string) (net.Conn, error) {
	netDialer := &net.Dialer{Timeout: dialTimeout}
	if s.port == implicitTLSPort {
		d := &tls.Dialer{NetDialer: netDialer, Config: s.tlsConfig}
		return d.DialContext(ctx, "tcp", addr)
	}
	return netDialer.DialContext(ctx, "tcp", addr)
}

// parseAddress accepts a single RFC 5322 address such as
// "Jobs <jobs@example.com>" or "jobs@example.com"
func parseAddress(raw string) (*mail.Address, error) {
	if strings.ContainsAny(raw, "\r\n") {
		return nil, apperrors.NewValidation("", "address contains a line break")
	}
	return mail.ParseAddress(raw)
}

// writeMessage writes a single part text/plain message to w
func writeMessage(w io.Writer, from, to *mail.Address, subject, body string, now time.Time) error {
	var h mail.Header
	h.SetDate(now)
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", []*mail.Address{to})
	h.SetSubject(subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	mw, err := mail.CreateSingleInlineWriter(w, h)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(mw, body); err != nil {
		mw.Close()
		return err
	}
	return mw.Close()
}
