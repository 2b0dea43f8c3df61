package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

const smtpTimeout = 15 * time.Second

// SMTPSender delivers over SMTP with go-mail. The defaults target SMTP2GO on
// port 2525 with opportunistic STARTTLS; IPv4 is forced because the relay's
// AAAA records are not reachable from every host.
type SMTPSender struct {
	host      string
	fromName  string
	fromEmail string
	opts      []gomail.Option
}

func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	opts := []gomail.Option{
		gomail.WithPort(port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(smtpTimeout),
		gomail.WithDialContextFunc(func(ctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(ctx, "tcp4", addr)
		}),
	}
	if username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(username),
			gomail.WithPassword(password),
		)
	}

	return &SMTPSender{host: host, fromName: fromName, fromEmail: fromEmail, opts: opts}
}

func (s *SMTPSender) SendLeadNotification(ctx context.Context, toEmail string, n LeadNotification) error {
	m, err := renderLeadNotification(n)
	if err != nil {
		return err
	}

	msg, err := s.buildMsg(toEmail, m)
	if err != nil {
		return err
	}

	// A client per send: a failed dial must not poison later deliveries.
	client, err := gomail.NewClient(s.host, s.opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTPSender) buildMsg(toEmail string, m message) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return nil, fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return nil, fmt.Errorf("smtp to: %w", err)
	}
	if m.ReplyTo != "" {
		// The applicant typed this address; a malformed one must not block the notification.
		_ = msg.ReplyTo(m.ReplyTo)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, m.Text)
	msg.AddAlternativeString(gomail.TypeTextHTML, m.HTML)
	return msg, nil
}

var _ Sender = (*SMTPSender)(nil)
