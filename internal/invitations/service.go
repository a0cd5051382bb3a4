// Package invitations implements the invitation token lifecycle: an admin invites an email
// into their organization, the invitee receives a single-use, time-limited token by email,
// and redeeming the token yields the identity the new account must be created with.
//
// Redemption is a single atomic consume in storage, so a token can be redeemed at most once
// even under concurrent requests. An expired token is rejected without being consumed; the
// admin re-invites (which replaces the row) and the background sweeper purges leftovers.
package invitations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/talenttree/talenttree/internal/db/models"
	"github.com/talenttree/talenttree/internal/telemetry"
	"github.com/talenttree/talenttree/internal/tenant"
)

var (
	// ErrAlreadyRegistered is returned when the invited email already has an account.
	ErrAlreadyRegistered = errors.New("email is already registered")
	// ErrInvalidEmail is returned for an empty or malformed email address.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrTokenInvalid is returned for a token that does not exist (or was already used).
	ErrTokenInvalid = errors.New("invitation token is invalid")
	// ErrTokenExpired is returned for a token presented after its expiration.
	ErrTokenExpired = errors.New("invitation token has expired")
)

// DeliveryError reports that the invitation was stored but its email could not be sent.
// Pending is the committed invitation, so the caller can surface the link another way or
// simply re-invite.
type DeliveryError struct {
	Pending *models.PendingUser
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("invitation for %s stored but email delivery failed: %v", e.Pending.Email, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// UserStore reports whether an account already exists.
type UserStore interface {
	Exists(ctx context.Context, email string) (bool, error)
}

// PendingStore persists outstanding invitations.
type PendingStore interface {
	Replace(ctx context.Context, p *models.PendingUser) error
	GetByToken(ctx context.Context, token string) (*models.PendingUser, error)
	ConsumeToken(ctx context.Context, token string, now time.Time) (*models.PendingUser, error)
}

// Sender delivers the registration link.
type Sender interface {
	SendInvitation(ctx context.Context, to, link string) error
}

// Options configures a Service.
type Options struct {
	TTL         time.Duration
	TokenLength int
	// Link turns a token into the registration URL embedded in the email.
	Link func(token string) string
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Service issues and redeems invitations.
type Service struct {
	users    UserStore
	pending  PendingStore
	sender   Sender
	opts     Options
	validate *validator.Validate
}

// NewService creates a Service. Zero options fall back to a 24h TTL and 50-character tokens.
func NewService(users UserStore, pending PendingStore, sender Sender, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.TokenLength <= 0 {
		opts.TokenLength = 50
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Link == nil {
		opts.Link = func(token string) string { return token }
	}
	return &Service{
		users:    users,
		pending:  pending,
		sender:   sender,
		opts:     opts,
		validate: validator.New(),
	}
}

// Redemption is the identity a redeemed token grants.
type Redemption struct {
	Email          string
	OrganizationID int64
	IsAdmin        bool
}

// Invite creates (or replaces) the invitation for email in orgID and emails the link.
// When the email cannot be sent the invitation stays stored and a *DeliveryError carrying
// it is returned.
func (s *Service) Invite(ctx context.Context, email string, isAdmin bool, orgID int64) (*models.PendingUser, error) {
	email = strings.TrimSpace(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		telemetry.InvitationsTotal.WithLabelValues("invalid_email").Inc()
		return nil, ErrInvalidEmail
	}
	if err := tenant.For(orgID).Validate(); err != nil {
		return nil, err
	}

	exists, err := s.users.Exists(ctx, email)
	if err != nil {
		telemetry.InvitationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		telemetry.InvitationsTotal.WithLabelValues("already_registered").Inc()
		return nil, ErrAlreadyRegistered
	}

	token, err := GenerateToken(s.opts.TokenLength)
	if err != nil {
		telemetry.InvitationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	p := &models.PendingUser{
		Email:          email,
		OrganizationID: &orgID,
		Token:          token,
		Expiration:     s.opts.Now().Add(s.opts.TTL),
		PendingAdmin:   isAdmin,
	}
	if err := s.pending.Replace(ctx, p); err != nil {
		telemetry.InvitationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if err := s.sender.SendInvitation(ctx, email, s.opts.Link(token)); err != nil {
		slog.Warn("invitation email failed", "email", email, "organization_id", orgID, "error", err)
		telemetry.InvitationsTotal.WithLabelValues("delivery_failed").Inc()
		return p, &DeliveryError{Pending: p, Err: err}
	}

	telemetry.InvitationsTotal.WithLabelValues("sent").Inc()
	return p, nil
}

// Preview returns the invitation behind token without consuming it.
func (s *Service) Preview(ctx context.Context, token string) (*models.PendingUser, error) {
	if token == "" {
		return nil, ErrTokenInvalid
	}
	p, err := s.pending.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrTokenInvalid
	}
	if p.IsExpired(s.opts.Now()) {
		return nil, ErrTokenExpired
	}
	return p, nil
}

// Redeem consumes token and returns the identity it grants. The caller creates the account.
func (s *Service) Redeem(ctx context.Context, token string) (*Redemption, error) {
	if token == "" {
		telemetry.InvitationRedemptionsTotal.WithLabelValues("invalid").Inc()
		return nil, ErrTokenInvalid
	}

	now := s.opts.Now()
	p, err := s.pending.ConsumeToken(ctx, token, now)
	if err != nil {
		telemetry.InvitationRedemptionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if p == nil {
		return nil, s.classifyMiss(ctx, token, now)
	}
	if p.OrganizationID == nil {
		// The organization was deleted after the invite went out.
		telemetry.InvitationRedemptionsTotal.WithLabelValues("invalid").Inc()
		return nil, ErrTokenInvalid
	}

	telemetry.InvitationRedemptionsTotal.WithLabelValues("redeemed").Inc()
	return &Redemption{
		Email:          p.Email,
		OrganizationID: *p.OrganizationID,
		IsAdmin:        p.PendingAdmin,
	}, nil
}

// classifyMiss tells an expired token (row still present) from an unknown or used one.
func (s *Service) classifyMiss(ctx context.Context, token string, now time.Time) error {
	p, err := s.pending.GetByToken(ctx, token)
	if err != nil {
		telemetry.InvitationRedemptionsTotal.WithLabelValues("error").Inc()
		return err
	}
	if p != nil && p.IsExpired(now) {
		telemetry.InvitationRedemptionsTotal.WithLabelValues("expired").Inc()
		return ErrTokenExpired
	}
	telemetry.InvitationRedemptionsTotal.WithLabelValues("invalid").Inc()
	return ErrTokenInvalid
}
