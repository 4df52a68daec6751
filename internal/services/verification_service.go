package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/poofware/booking-service/internal/clock"
	"github.com/poofware/booking-service/internal/constants"
	"github.com/poofware/booking-service/internal/lock"
	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/repositories"
	"github.com/poofware/booking-service/internal/utils"
)

// VerificationService flips the smsVerified flag of a customer or agent.
// Codes are written to the log instead of being texted.
type VerificationService struct {
	clock     clock.Clock
	locks     *lock.MutexMap
	codeRepo  repositories.SMSVerificationRepository
	userRepo  repositories.UserRepository
	agentRepo repositories.AgentRepository
}

func NewVerificationService(
	clk clock.Clock,
	locks *lock.MutexMap,
	codeRepo repositories.SMSVerificationRepository,
	userRepo repositories.UserRepository,
	agentRepo repositories.AgentRepository,
) *VerificationService {
	return &VerificationService{clock: clk, locks: locks, codeRepo: codeRepo, userRepo: userRepo, agentRepo: agentRepo}
}

func generateCode() (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < constants.VerificationCodeDigits; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", constants.VerificationCodeDigits, n), nil
}

// RequestCode issues a fresh code for the actor and returns when it expires.
func (s *VerificationService) RequestCode(ctx context.Context, actor models.Actor) (time.Time, error) {
	if actor.Role != models.RoleCustomer && actor.Role != models.RoleAgent {
		return time.Time{}, fmt.Errorf("role %q has no phone to verify: %w", actor.Role, utils.ErrForbidden)
	}
	code, err := generateCode()
	if err != nil {
		return time.Time{}, err
	}
	now := s.clock.Now()
	expires := now.Add(constants.VerificationCodeTTL)
	if err := s.codeRepo.CreateCode(ctx, actor.ID, actor.Role, code, now, expires); err != nil {
		return time.Time{}, err
	}

	utils.Logger.WithFields(logrus.Fields{
		"subject_id": actor.ID,
		"role":       actor.Role,
		"code":       code,
	}).Info("SMS verification code issued (not sent)")
	return expires, nil
}

// ConfirmCode marks the actor verified when code matches the latest one.
func (s *VerificationService) ConfirmCode(ctx context.Context, actor models.Actor, code string) error {
	rec, err := s.codeRepo.GetCode(ctx, actor.ID)
	if err != nil {
		return err
	}
	if rec == nil || rec.Verified || s.clock.Now().After(rec.ExpiresAt) || rec.Attempts >= constants.VerificationCodeMaxAttempt {
		return utils.ErrInvalidCode
	}
	if rec.VerificationCode != code {
		if err := s.codeRepo.IncrementAttempts(ctx, rec.ID); err != nil {
			return err
		}
		return utils.ErrInvalidCode
	}
	if err := s.codeRepo.MarkVerified(ctx, rec.ID, s.clock.Now()); err != nil {
		return err
	}
	return s.markVerified(ctx, actor)
}

func (s *VerificationService) markVerified(ctx context.Context, actor models.Actor) error {
	if actor.Role == models.RoleAgent {
		unlock := s.locks.LockAll(lock.AgentKey(actor.ID))
		defer unlock()
		return s.agentRepo.UpdateWithRetry(ctx, actor.ID, func(a *models.Agent) error {
			a.SMSVerified = true
			return nil
		})
	}
	return s.userRepo.UpdateWithRetry(ctx, actor.ID, func(u *models.User) error {
		u.SMSVerified = true
		return nil
	})
}

// CleanupExpiredCodes drops stale unverified codes.
func (s *VerificationService) CleanupExpiredCodes(ctx context.Context) error {
	return s.codeRepo.CleanupExpired(ctx, s.clock.Now())
}
