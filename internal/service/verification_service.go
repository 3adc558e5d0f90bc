package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/fwforge/fwportal/internal/model"
	"github.com/fwforge/fwportal/internal/pkg/codehash"
	appErr "github.com/fwforge/fwportal/internal/pkg/errors"
	"github.com/fwforge/fwportal/internal/store"
)

const (
	DefaultCodeTTL        = 10 * time.Minute
	DefaultResendCooldown = 60 * time.Second
	DefaultMaxAttempts    = 6
	DefaultRole           = "user"

	AdminRole = "admin"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type VerificationConfig struct {
	CodeTTL        time.Duration
	ResendCooldown time.Duration
	MaxAttempts    int
	DefaultRole    string
	// AdminEmails restricts the admin issuance path. Empty means the
	// admin path accepts any valid email.
	AdminEmails []string
}

func (c *VerificationConfig) applyDefaults() {
	if c.CodeTTL <= 0 {
		c.CodeTTL = DefaultCodeTTL
	}
	if c.ResendCooldown <= 0 {
		c.ResendCooldown = DefaultResendCooldown
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.DefaultRole == "" {
		c.DefaultRole = DefaultRole
	}
}

// VerificationService owns the verification-code lifecycle: issuance
// with cooldown throttling, bounded-attempt submission, one-shot
// consumption on success and token minting.
type VerificationService struct {
	store  store.ChallengeStore
	sender EmailSender
	gen    CodeGenerator
	tokens *TokenService
	cfg    VerificationConfig
	admins map[string]struct{}
	now    func() time.Time
}

func NewVerificationService(st store.ChallengeStore, sender EmailSender, gen CodeGenerator, tokens *TokenService, cfg VerificationConfig) *VerificationService {
	cfg.applyDefaults()
	admins := make(map[string]struct{}, len(cfg.AdminEmails))
	for _, email := range cfg.AdminEmails {
		email = normalizeEmail(email)
		if email != "" {
			admins[email] = struct{}{}
		}
	}
	return &VerificationService{
		store:  st,
		sender: sender,
		gen:    gen,
		tokens: tokens,
		cfg:    cfg,
		admins: admins,
		now:    time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SendCode issues a fresh challenge for email, carrying role into the
// eventual session token. The challenge is committed only after the
// code has been handed to the mail transport, so a delivery failure
// never locks the user behind a cooldown for a code they never got.
func (s *VerificationService) SendCode(ctx context.Context, email, role string) error {
	email = normalizeEmail(email)
	if !emailRegex.MatchString(email) {
		return appErr.ErrInvalidEmail
	}
	if role == "" {
		role = s.cfg.DefaultRole
	}
	return s.issue(ctx, email, role)
}

// SendAdminCode is the allow-list restricted issuance path; the minted
// challenge always carries the admin role.
func (s *VerificationService) SendAdminCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !emailRegex.MatchString(email) {
		return appErr.ErrInvalidEmail
	}
	if len(s.admins) > 0 {
		if _, ok := s.admins[email]; !ok {
			return appErr.ErrForbidden
		}
	}
	return s.issue(ctx, email, AdminRole)
}

func (s *VerificationService) issue(ctx context.Context, email, role string) error {
	now := s.now()
	if ch, ok := s.store.Get(email); ok {
		elapsed := now.Sub(ch.LastSentAt)
		if elapsed < s.cfg.ResendCooldown {
			remaining := s.cfg.ResendCooldown - elapsed
			wait := int((remaining + time.Second - 1) / time.Second)
			return &appErr.ThrottledError{WaitSeconds: wait}
		}
	}
	code := s.gen.Generate()
	hash, err := codehash.Hash(code)
	if err != nil {
		return err
	}
	subject := "Your verification code"
	body := fmt.Sprintf("Your firmware portal verification code is %s. It expires in %d minutes.", code, int(s.cfg.CodeTTL.Minutes()))
	if err := s.sender.Send(email, subject, body); err != nil {
		logutil.GetLogger(ctx).Error("verification code delivery failed", zap.String("email", email), zap.Error(err))
		return appErr.ErrDelivery
	}
	s.store.Put(email, model.Challenge{
		Email:      email,
		CodeHash:   hash,
		Role:       role,
		ExpiresAt:  now.Add(s.cfg.CodeTTL),
		LastSentAt: now,
		Attempts:   0,
	})
	return nil
}

// VerifyCode exchanges a correctly entered code for a session token.
// The challenge is consumed exactly once: on a match, on first access
// past expiry, or when the attempt ceiling is crossed.
func (s *VerificationService) VerifyCode(ctx context.Context, email, code string) (token, role, normalized string, err error) {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	now := s.now()

	var (
		expired  bool
		exceeded bool
		matched  bool
	)
	snap, ok := s.store.Update(email, func(ch *model.Challenge) bool {
		if now.After(ch.ExpiresAt) {
			expired = true
			return false
		}
		ch.Attempts++
		if ch.Attempts > s.cfg.MaxAttempts {
			exceeded = true
			return false
		}
		if !codehash.Matches(ch.CodeHash, code) {
			return true
		}
		matched = true
		return false
	})
	switch {
	case !ok:
		return "", "", "", appErr.ErrNoChallenge
	case expired:
		return "", "", "", appErr.ErrCodeExpired
	case exceeded:
		return "", "", "", appErr.ErrTooManyAttempts
	case !matched:
		return "", "", "", appErr.ErrInvalidCode
	}

	token, err = s.tokens.Mint(email, snap.Role)
	if err != nil {
		logutil.GetLogger(ctx).Error("token mint failed", zap.String("email", email), zap.Error(err))
		return "", "", "", appErr.ErrInternal
	}
	return token, snap.Role, email, nil
}
