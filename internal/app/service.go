/**
 * @description
 * This file contains the core business logic for the credits-service. The
 * `Service` struct orchestrates every administrative operation on the credit
 * ledger and subscription state, coordinating between the database
 * repository, the storage and identity collaborators, and the message broker.
 *
 * Key features:
 * - All balance changes flow through the repository's atomic operations;
 *   the service never computes a balance client-side.
 * - Validation happens here: negative amounts, unknown plans, short
 *   passwords, and disallowed status transitions are rejected before any
 *   write is attempted.
 * - Audit events are published to RabbitMQ after the durable write, and a
 *   publish failure is logged rather than surfaced — the ledger already
 *   committed.
 *
 * @dependencies
 * - context, errors, fmt, log: Standard Go libraries.
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain, internal/store: Domain models and data access.
 * - pkg/rabbitmq: Audit event publishing.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/getmidia/credits-service/internal/domain"
	"github.com/getmidia/credits-service/internal/store"
	"github.com/getmidia/credits-service/pkg/rabbitmq"
)

// MinPasswordLength is the pre-flight minimum for administrative password
// resets; the identity collaborator applies its own policy on top.
const MinPasswordLength = 6

var (
	ErrInvalidAmount     = errors.New("credit amount must be a non-negative integer")
	ErrPasswordTooShort  = errors.New("password must have at least 6 characters")
	ErrInvalidTransition = errors.New("subscription status transition not allowed")
	ErrRateLimited       = errors.New("too many attempts, try again later")
)

// ObjectStore removes stored assets. Satisfied by storageclient.Client.
type ObjectStore interface {
	DeleteObject(ctx context.Context, objectPath string) error
}

// IdentityDirectory performs privileged identity operations. Satisfied by
// identityclient.Client.
type IdentityDirectory interface {
	SetUserPassword(ctx context.Context, userID, password string) error
}

// Service provides the core business logic for the admin credit and
// subscription operations.
type Service struct {
	repo          store.Repository
	eventProducer rabbitmq.Publisher
	storage       ObjectStore
	identity      IdentityDirectory
	resetLimiter  *ResetRateLimiter
	resetLimit    int
}

// NewService creates a new credits service instance. The rate limiter may be
// nil, in which case password resets are not throttled.
func NewService(repo store.Repository, producer rabbitmq.Publisher, storage ObjectStore, identity IdentityDirectory, resetLimiter *ResetRateLimiter, resetLimitPerHour int) *Service {
	return &Service{
		repo:          repo,
		eventProducer: producer,
		storage:       storage,
		identity:      identity,
		resetLimiter:  resetLimiter,
		resetLimit:    resetLimitPerHour,
	}
}

// GetSubscription returns a user's full subscription detail.
func (s *Service) GetSubscription(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	return s.repo.GetSubscriptionByUserID(ctx, userID)
}

// SetCredits replaces a user's balance with an exact non-negative value.
// Repeating the call with the same value has no further effect.
func (s *Service) SetCredits(ctx context.Context, userID uuid.UUID, value int) (*domain.CreditChange, error) {
	if value < 0 {
		return nil, ErrInvalidAmount
	}

	change, err := s.repo.SetCredits(ctx, userID, value)
	if err != nil {
		return nil, fmt.Errorf("failed to set credits: %w", err)
	}

	s.publishAudit(ctx, rabbitmq.RoutingCreditsAdjusted, rabbitmq.AuditEvent{
		UserID:       userID,
		Action:       domain.ActionCreditAdjustment,
		CreditsDelta: change.Current - change.Previous,
	})
	return change, nil
}

// RenewCycle resets the balance to the plan allotment, advances the cycle end
// by one month, and activates the subscription. Unused credits do not roll
// over; that is the product rule, not an oversight.
func (s *Service) RenewCycle(ctx context.Context, userID uuid.UUID) (*domain.RenewalResult, error) {
	result, err := s.repo.RenewCycle(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to renew cycle: %w", err)
	}

	s.publishAudit(ctx, rabbitmq.RoutingSubscriptionRenewed, rabbitmq.AuditEvent{
		UserID:       userID,
		Action:       domain.ActionManualRenewal,
		CreditsDelta: result.NewCredits,
	})
	return result, nil
}

// ChangePlan validates the plan against the catalog and persists it. Credits
// are untouched: synchronizing the balance to the new allotment is the
// separate SyncCreditsToPlan step, which the operator may decline.
func (s *Service) ChangePlan(ctx context.Context, userID uuid.UUID, plan domain.Plan) error {
	if !domain.ValidPlan(plan) {
		return domain.ErrUnknownPlan
	}

	if err := s.repo.UpdatePlan(ctx, userID, plan); err != nil {
		return fmt.Errorf("failed to change plan: %w", err)
	}

	s.publishAudit(ctx, rabbitmq.RoutingPlanChanged, rabbitmq.AuditEvent{
		UserID: userID,
		Action: domain.ActionPlanChange,
		Plan:   string(plan),
	})
	return nil
}

// SyncCreditsToPlan sets the balance to the current plan's allotment.
func (s *Service) SyncCreditsToPlan(ctx context.Context, userID uuid.UUID) (*domain.CreditChange, error) {
	change, err := s.repo.SyncCreditsToPlan(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sync credits to plan: %w", err)
	}

	s.publishAudit(ctx, rabbitmq.RoutingCreditsAdjusted, rabbitmq.AuditEvent{
		UserID:       userID,
		Action:       domain.ActionCreditAdjustment,
		CreditsDelta: change.Current - change.Previous,
	})
	return change, nil
}

// UpdateFinance applies a finance-tab edit. The status change must be in the
// transition table; the repository then compare-and-swaps on the status the
// administrator saw.
func (s *Service) UpdateFinance(ctx context.Context, userID uuid.UUID, upd domain.FinanceUpdate) error {
	if !domain.ValidStatus(upd.Status) {
		return ErrInvalidTransition
	}

	current, err := s.repo.GetSubscriptionByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if !domain.CanTransition(current.Status, upd.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, upd.Status)
	}

	return s.repo.UpdateFinance(ctx, userID, current.Status, upd)
}

// UpdateRegistration updates the registration fields of a profile.
func (s *Service) UpdateRegistration(ctx context.Context, userID uuid.UUID, upd domain.RegistrationUpdate) error {
	return s.repo.UpdateRegistration(ctx, userID, upd)
}

// ResetPassword sets a new password for the target account through the
// identity collaborator. Only the length is validated here; credential
// custody stays with the collaborator.
func (s *Service) ResetPassword(ctx context.Context, adminID string, userID uuid.UUID, password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	if s.resetLimiter != nil && s.resetLimit > 0 {
		count, _, err := s.resetLimiter.Consume(ctx, "password_reset", adminID)
		if err != nil {
			log.Printf("level=warn component=service msg=\"reset rate limiter unavailable; allowing request\" err=%v", err)
		} else if count > s.resetLimit {
			return ErrRateLimited
		}
	}

	if err := s.identity.SetUserPassword(ctx, userID.String(), password); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return nil
}

// RecordCancellationRequest files a cancellation ticket in the history log.
// The subscription keeps its current status until an administrator applies
// the cancellation through a finance edit.
func (s *Service) RecordCancellationRequest(ctx context.Context, userID uuid.UUID) error {
	return s.repo.RecordCancellationRequest(ctx, userID)
}

// ListHistory returns a user's audit log, newest first.
func (s *Service) ListHistory(ctx context.Context, userID uuid.UUID) ([]domain.HistoryEntry, error) {
	return s.repo.ListHistory(ctx, userID)
}

// ListReports returns all reported images, newest first.
func (s *Service) ListReports(ctx context.Context) ([]domain.ReportRecord, error) {
	return s.repo.ListReports(ctx)
}

// RefundReport resolves a pending report as refunded and credits the cost
// back to the reporter. The repository performs both writes in one
// transaction, so a failure leaves the report pending and the balance
// untouched.
func (s *Service) RefundReport(ctx context.Context, reportID uuid.UUID) (*domain.RefundResult, error) {
	result, err := s.repo.RefundReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	s.publishAudit(ctx, rabbitmq.RoutingReportRefunded, rabbitmq.AuditEvent{
		UserID:       result.UserID,
		Action:       domain.ActionCreditAdjustment,
		CreditsDelta: result.Cost,
	})
	return result, nil
}

// RejectReport resolves a pending report as rejected without touching the
// ledger.
func (s *Service) RejectReport(ctx context.Context, reportID uuid.UUID) error {
	return s.repo.RejectReport(ctx, reportID)
}

// DeleteReport removes the stored image asset and then the report record.
// Asset deletion is best-effort: a storage failure does not block deleting
// the record, but is returned as a warning for the caller to surface.
func (s *Service) DeleteReport(ctx context.Context, reportID uuid.UUID) (warning string, err error) {
	report, err := s.repo.GetReportByID(ctx, reportID)
	if err != nil {
		return "", err
	}

	if report.ImagePath != "" && s.storage != nil {
		if delErr := s.storage.DeleteObject(ctx, report.ImagePath); delErr != nil {
			log.Printf("level=warn component=service msg=\"report asset delete failed\" report_id=%s path=%s err=%v", reportID, report.ImagePath, delErr)
			warning = fmt.Sprintf("image asset could not be deleted: %v", delErr)
		}
	}

	if err := s.repo.DeleteReport(ctx, reportID); err != nil {
		return "", err
	}
	return warning, nil
}

// publishAudit publishes an audit event best-effort after a committed write.
func (s *Service) publishAudit(ctx context.Context, routingKey string, event rabbitmq.AuditEvent) {
	if s.eventProducer == nil {
		return
	}
	if err := s.eventProducer.PublishAuditEvent(ctx, routingKey, event); err != nil {
		log.Printf("level=warn component=service msg=\"audit event publish failed\" routing_key=%s user_id=%s err=%v", routingKey, event.UserID, err)
	}
}
