package notifications

import (
	"context"
	"fmt"

	"github.com/talenttree/talenttree/internal/telemetry"
)

// Subjects of the two messages the directory sends.
const (
	InvitationSubject   = "Time Sensitive: Welcome to talentTree!"
	ConfirmationSubject = "Registration Successful"
)

// Notifier composes the directory's emails and hands them to a Mailer.
type Notifier struct {
	mailer Mailer
	from   string
}

// NewNotifier creates a notifier that sends as from through mailer.
func NewNotifier(mailer Mailer, from string) *Notifier {
	return &Notifier{mailer: mailer, from: from}
}

// InvitationMessage builds the invitation email carrying the registration link.
func InvitationMessage(from, to, link string) Message {
	return Message{
		Subject: InvitationSubject,
		From:    from,
		To:      []string{to},
		Body: fmt.Sprintf("Welcome to talentTree! Please click the following link\n"+
			"to complete registration:\n"+
			"%s\n", link),
	}
}

// ConfirmationMessage builds the email sent once an account exists.
func ConfirmationMessage(from, to string) Message {
	return Message{
		Subject: ConfirmationSubject,
		From:    from,
		To:      []string{to},
		Body: fmt.Sprintf("Welcome to talentTree!\n\n"+
			"Thank you for joining talentTree, we hope you enjoy our product.\n"+
			"For your records, your username is:\n\n"+
			"%s\n\n"+
			"Thank you again!\n"+
			"-the talentTree team\n", to),
	}
}

// SendInvitation emails link to the invited address.
func (n *Notifier) SendInvitation(ctx context.Context, to, link string) error {
	return n.send(ctx, "invitation", InvitationMessage(n.from, to, link))
}

// SendConfirmation emails the registration confirmation to a new user.
func (n *Notifier) SendConfirmation(ctx context.Context, to string) error {
	return n.send(ctx, "confirmation", ConfirmationMessage(n.from, to))
}

func (n *Notifier) send(ctx context.Context, kind string, msg Message) error {
	if err := n.mailer.Send(ctx, msg); err != nil {
		telemetry.EmailsSentTotal.WithLabelValues(kind, "error").Inc()
		return err
	}
	telemetry.EmailsSentTotal.WithLabelValues(kind, "sent").Inc()
	return nil
}
