package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noscite/noscite-assistant/internal/domain"
	"github.com/noscite/noscite-assistant/internal/logging"
	"github.com/noscite/noscite-assistant/internal/mailer"
)

var validate = validator.New()

// CaptchaVerifier checks a widget token with the CAPTCHA provider.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

// Mailer delivers notification emails.
type Mailer interface {
	Send(ctx context.Context, e mailer.Email) error
}

// ContactRepositoryInterface persists contact form submissions.
type ContactRepositoryInterface interface {
	Create(ctx context.Context, c *domain.ContactSubmission) error
}

type ContactConfig struct {
	IPQuota    domain.Quota
	EmailQuota domain.Quota
	NotifyTo   []string
}

func DefaultContactConfig() ContactConfig {
	return ContactConfig{
		IPQuota:    domain.Quota{Max: 10, Window: 60 * time.Minute},
		EmailQuota: domain.Quota{Max: 3, Window: 60 * time.Minute},
		NotifyTo:   []string{"info@noscite.it"},
	}
}

// ContactInput is a sanitized contact form submission.
type ContactInput struct {
	Name         string `validate:"required,max=100"`
	Email        string `validate:"required,email,max=254"`
	Phone        string `validate:"max=20"`
	Company      string `validate:"max=100"`
	Message      string `validate:"required,max=2000"`
	CaptchaToken string
	ClientIP     string
}

// ContactService handles contact form submissions.
type ContactService struct {
	limiter *RateLimiter
	captcha CaptchaVerifier
	repo    ContactRepositoryInterface
	mailer  Mailer
	uuidGen UUIDGenerator
	now     func() time.Time
	cfg     ContactConfig
}

func NewContactService(limiter *RateLimiter, captcha CaptchaVerifier, repo ContactRepositoryInterface, m Mailer, cfg ContactConfig) *ContactService {
	return &ContactService{
		limiter: limiter,
		captcha: captcha,
		repo:    repo,
		mailer:  m,
		uuidGen: &DefaultUUIDGenerator{},
		now:     time.Now,
		cfg:     cfg,
	}
}

// Submit admits, verifies, stores and forwards a submission. The IP quota
// is consumed before the CAPTCHA provider is called and the email quota only
// after the token is accepted.
func (s *ContactService) Submit(ctx context.Context, in ContactInput) (*domain.ContactSubmission, error) {
	if strings.TrimSpace(in.CaptchaToken) == "" {
		return nil, domain.ErrCaptchaMissing
	}
	if err := validate.Struct(in); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "dati del modulo non validi", err)
	}

	if !s.limiter.CheckAndConsume(ctx, in.ClientIP, domain.EndpointContactIP, s.cfg.IPQuota) {
		return nil, domain.ErrRateLimited
	}

	ok, err := s.captcha.Verify(ctx, in.CaptchaToken, in.ClientIP)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, "captcha verification unavailable", err)
	}
	if !ok {
		return nil, domain.ErrCaptchaFailed
	}

	if !s.limiter.CheckAndConsume(ctx, in.Email, domain.EndpointContactEmail, s.cfg.EmailQuota) {
		return nil, domain.ErrRateLimited
	}

	sub := &domain.ContactSubmission{
		ID:        s.uuidGen.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Company:   in.Company,
		Message:   in.Message,
		IP:        in.ClientIP,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to store contact submission: %w", err)
	}

	if err := s.mailer.Send(ctx, notificationEmail(sub, s.cfg.NotifyTo)); err != nil {
		logging.FromContext(ctx).Error().Err(err).Str("submission_id", sub.ID).Msg("contact notification failed")
		return nil, fmt.Errorf("%w: %w", domain.ErrMailFailed, err)
	}

	return sub, nil
}

func notificationEmail(sub *domain.ContactSubmission, to []string) mailer.Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Nome: %s\n", sub.Name)
	fmt.Fprintf(&b, "Email: %s\n", sub.Email)
	if sub.Phone != "" {
		fmt.Fprintf(&b, "Telefono: %s\n", sub.Phone)
	}
	if sub.Company != "" {
		fmt.Fprintf(&b, "Azienda: %s\n", sub.Company)
	}
	fmt.Fprintf(&b, "\n%s\n", sub.Message)

	return mailer.Email{
		To:      to,
		ReplyTo: sub.Email,
		Subject: "Nuovo messaggio dal sito da " + sub.Name,
		Text:    b.String(),
	}
}
