package email

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"student_outreach_engine/internal/domain/channel"
)

// Sender delivers messages over SMTP. It implements the channel.Sender
// capability for the email channel.
type Sender struct {
	host string
	opts []mail.Option
	from string
}

func NewSender(host string, port int, user, password, from string) (*Sender, error) {
	if host == "" {
		return nil, fmt.Errorf("SMTP host is required for the email sender")
	}
	opts := []mail.Option{mail.WithPort(port)}
	if user != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(user),
			mail.WithPassword(password),
		)
	}
	return &Sender{host: host, opts: opts, from: from}, nil
}

// Send builds and transmits one HTML email. The generated Message-ID serves
// as the provider reference.
func (s *Sender) Send(ctx context.Context, msg channel.Message) (string, error) {
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return "", fmt.Errorf("invalid from address %q: %w", s.from, err)
	}
	if err := m.To(msg.Destination); err != nil {
		return "", fmt.Errorf("invalid recipient address %q: %w", msg.Destination, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.Body)
	m.SetMessageID()

	client, err := mail.NewClient(s.host, s.opts...)
	if err != nil {
		return "", fmt.Errorf("creating SMTP client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return "", fmt.Errorf("sending email: %w", err)
	}

	if ids := m.GetGenHeader(mail.HeaderMessageID); len(ids) > 0 {
		return ids[0], nil
	}
	return "", nil
}
