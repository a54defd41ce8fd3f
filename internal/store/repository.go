/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for all
 * data access operations required by the credits-service. By defining an interface,
 * we decouple the application's business logic from the specific database
 * implementation (PostgreSQL), making the code more modular and easier to test.
 *
 * @dependencies
 * - context: Standard Go library.
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/getmidia/credits-service/internal/domain"
)

// Sentinel errors returned by repository implementations.
var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrReportNotFound       = errors.New("report not found")
	ErrReportNotPending     = errors.New("report is not pending")
	ErrStatusConflict       = errors.New("subscription status changed concurrently")
)

// Repository defines the set of methods for interacting with the database.
//
// Every method that changes a credit balance or the subscription status
// performs the mutation server-side, either as a single UPDATE statement or
// inside one transaction holding a row lock. Callers never read a balance,
// compute, and write it back across round trips.
type Repository interface {
	// Subscription methods
	GetSubscriptionByUserID(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error)
	UpdateRegistration(ctx context.Context, userID uuid.UUID, upd domain.RegistrationUpdate) error
	// UpdateFinance applies the finance-tab edit with a compare-and-swap on
	// the previous status; ErrStatusConflict signals a concurrent edit.
	UpdateFinance(ctx context.Context, userID uuid.UUID, prevStatus domain.Status, upd domain.FinanceUpdate) error

	// Ledger operations
	SetCredits(ctx context.Context, userID uuid.UUID, credits int) (*domain.CreditChange, error)
	SyncCreditsToPlan(ctx context.Context, userID uuid.UUID) (*domain.CreditChange, error)
	RenewCycle(ctx context.Context, userID uuid.UUID) (*domain.RenewalResult, error)

	// Plan change. Never touches credits; crediting the new allotment is the
	// separate, explicit SyncCreditsToPlan step.
	UpdatePlan(ctx context.Context, userID uuid.UUID, plan domain.Plan) error

	// History (append-only; read for audit display only)
	ListHistory(ctx context.Context, userID uuid.UUID) ([]domain.HistoryEntry, error)
	// RecordCancellationRequest files a cancellation ticket as a history
	// entry. The status itself only changes through a later finance edit.
	RecordCancellationRequest(ctx context.Context, userID uuid.UUID) error

	// Report methods
	ListReports(ctx context.Context) ([]domain.ReportRecord, error)
	GetReportByID(ctx context.Context, reportID uuid.UUID) (*domain.ReportRecord, error)
	RefundReport(ctx context.Context, reportID uuid.UUID) (*domain.RefundResult, error)
	RejectReport(ctx context.Context, reportID uuid.UUID) error
	DeleteReport(ctx context.Context, reportID uuid.UUID) error
}
