package membership

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/trudslev/kofi-members/app/models"
	"github.com/trudslev/kofi-members/internal/pkg/mail"
)

// Processing failures the webhook controller maps to HTTP statuses.
var (
	ErrMissingToken = errors.New("missing verification token")
	ErrInvalidToken = errors.New("invalid verification token")
	ErrInvalidEmail = errors.New("invalid email")
	ErrUserCreation = errors.New("user creation failed")
)

var validate = validator.New()

// Service processes verified donation payloads: user lookup/creation, role
// resolution and granting, and audit logging.
type Service struct {
	repo  Repository
	audit *AuditLogger
	log   *logrus.Logger
}

// NewService creates a membership service from an injected repository and
// diagnostic logger.
func NewService(repo Repository, log *logrus.Logger) *Service {
	return &Service{repo: repo, audit: NewAuditLogger(repo), log: log}
}

// NewServiceFromDB creates a membership service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, log *logrus.Logger) *Service {
	return NewService(NewRepository(db), log)
}

// ProcessDonation validates and applies one webhook payload against the
// given configuration snapshot. Side effects are not transactional: user
// creation, role grant and the audit rows are independent steps with no
// rollback on partial failure.
func (s *Service) ProcessDonation(ctx context.Context, opts *models.Options, p *DonationPayload) (*Result, error) {
	s.log.WithFields(logrus.Fields{
		"email": p.Email,
		"tier":  p.TierName,
	}).Info("Webhook received")

	if strings.TrimSpace(p.VerificationToken) == "" {
		return nil, ErrMissingToken
	}
	if opts.VerificationToken == "" || p.VerificationToken != opts.VerificationToken {
		s.log.Warn("Invalid verification token")
		return nil, ErrInvalidToken
	}
	if err := validate.Var(p.Email, "required,email"); err != nil {
		s.log.Warn("Invalid or missing email")
		return nil, ErrInvalidEmail
	}

	if opts.OnlySubscriptions && !p.IsSubscriptionPayment {
		return &Result{Skipped: true, Email: p.Email}, nil
	}

	result := &Result{Email: p.Email}

	user, err := s.repo.GetUserByEmail(p.Email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user, err = s.createUser(p.Email)
		if err != nil {
			s.log.WithField("error", err.Error()).Error("User creation failed")
			return nil, errors.Join(ErrUserCreation, err)
		}
		result.UserCreated = true
		s.log.WithFields(logrus.Fields{
			"user_id": user.ID,
			"email":   p.Email,
		}).Info("New user created")
		if err := s.audit.LogUserCreated(user.ID, p.Email); err != nil {
			return nil, err
		}
		if err := mail.SendWelcomeEmail(p.Email); err != nil {
			s.log.WithField("error", err.Error()).Warn("Failed to send welcome email")
		}
	}
	result.UserID = user.ID

	role := ResolveRole(p.TierName, opts)
	if role != "" {
		if err := s.grantRole(user.ID, role); err != nil {
			return nil, err
		}
		result.Role = role
		s.log.WithFields(logrus.Fields{
			"user_id": user.ID,
			"email":   p.Email,
			"role":    role,
		}).Info("Assigned role to user")
		if err := s.audit.LogRoleAssignment(user.ID, p.Email, role); err != nil {
			return nil, err
		}
	} else {
		s.log.WithField("tier", p.TierName).Info("No matching tier or default role for user")
	}

	if err := s.audit.LogDonation(user.ID, p.Email, float64(p.Amount), p.Currency); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"email":    p.Email,
		"amount":   float64(p.Amount),
		"currency": p.Currency,
	}).Info("Donation logged")

	return result, nil
}

// RecordWebhookEvent persists a delivery for observability. Failures are
// reported but callers treat them as non-fatal.
func (s *Service) RecordWebhookEvent(ctx context.Context, eventID, payloadJSON string, tokenValid bool) (*models.WebhookEvent, error) {
	event := &models.WebhookEvent{
		EventID:     eventID,
		PayloadJSON: payloadJSON,
		TokenValid:  tokenValid,
	}
	if err := s.repo.CreateWebhookEvent(event); err != nil {
		return nil, err
	}
	return event, nil
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, eventID uint, processingErr error) error {
	if eventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookEventProcessed(eventID, errMsg)
}

func (s *Service) createUser(email string) (*models.User, error) {
	user, err := models.CreateUser(email)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// grantRole adds the role to the user's set and stamps the grant record.
// The grant row carries role and timestamp together, so the two can never
// diverge.
func (s *Service) grantRole(userID uint, role string) error {
	if err := s.repo.AddUserRole(userID, role); err != nil {
		return err
	}
	return s.repo.UpsertRoleGrant(userID, role, time.Now())
}
