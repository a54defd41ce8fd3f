/**
 * @description
 * This file implements the `Repository` interface against PostgreSQL using the
 * pgx connection pool. It contains all the SQL for the credits-service.
 *
 * Key features:
 * - Balance mutations run server-side: a single UPDATE per operation, or one
 *   transaction holding a `FOR UPDATE` row lock when a history row must be
 *   appended atomically with the balance change.
 * - The refund flow flips the report status and credits the balance inside one
 *   transaction, with a compare-and-swap on `status = 'pending'` so a report
 *   can never be refunded twice and a failed credit leaves the report pending.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: PostgreSQL driver and connection pooling.
 * - internal/domain: Domain models and the plan catalog.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/getmidia/credits-service/internal/domain"
)

// PostgresRepository is the pgx-backed implementation of Repository.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const subscriptionColumns = `
	id, email, full_name, tax_id, phone, plan, subscription_status,
	credits, cycle_start, cycle_end, payment_method, created_at, updated_at
`

// GetSubscriptionByUserID retrieves the subscription row for a user.
func (r *PostgresRepository) GetSubscriptionByUserID(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM profiles WHERE id = $1`

	var sub domain.Subscription
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&sub.UserID,
		&sub.Email,
		&sub.FullName,
		&sub.TaxID,
		&sub.Phone,
		&sub.Plan,
		&sub.Status,
		&sub.Credits,
		&sub.CycleStart,
		&sub.CycleEnd,
		&sub.PaymentMethod,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// UpdateRegistration updates the registration fields of a profile.
func (r *PostgresRepository) UpdateRegistration(ctx context.Context, userID uuid.UUID, upd domain.RegistrationUpdate) error {
	query := `
		UPDATE profiles
		SET full_name = $2, tax_id = $3, phone = $4, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, userID, upd.FullName, upd.TaxID, upd.Phone)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// UpdateFinance applies a finance-tab edit. The status column is only
// updated when it still holds the value the administrator saw; a
// concurrent edit surfaces as ErrStatusConflict instead of silently
// overwriting the other edit.
func (r *PostgresRepository) UpdateFinance(ctx context.Context, userID uuid.UUID, prevStatus domain.Status, upd domain.FinanceUpdate) error {
	query := `
		UPDATE profiles
		SET subscription_status = $3,
		    cycle_start = $4,
		    cycle_end = $5,
		    payment_method = $6,
		    updated_at = NOW()
		WHERE id = $1 AND subscription_status = $2
	`
	tag, err := r.db.Exec(ctx, query, userID, prevStatus, upd.Status, upd.CycleStart, upd.CycleEnd, upd.PaymentMethod)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from a lost compare-and-swap.
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM profiles WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrSubscriptionNotFound
		}
		return ErrStatusConflict
	}
	return nil
}

// SetCredits replaces the balance with an exact value and records the signed
// delta in the history log. Repeating the call with the same value is a
// no-op: the balance stays put and no zero-delta history row is written.
func (r *PostgresRepository) SetCredits(ctx context.Context, userID uuid.UUID, credits int) (*domain.CreditChange, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	prev, plan, cycleStart, cycleEnd, err := lockProfile(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `UPDATE profiles SET credits = $2, updated_at = NOW() WHERE id = $1`, userID, credits); err != nil {
		return nil, err
	}

	if delta := credits - prev; delta != 0 {
		if err := insertHistory(ctx, tx, userID, domain.ActionCreditAdjustment, plan, delta, cycleStart, cycleEnd); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &domain.CreditChange{Previous: prev, Current: credits}, nil
}

// SyncCreditsToPlan sets the balance to the current plan's allotment. This is
// the explicit second step after a plan change; it resolves the plan under
// the same row lock so a concurrent plan edit cannot slip in between.
func (r *PostgresRepository) SyncCreditsToPlan(ctx context.Context, userID uuid.UUID) (*domain.CreditChange, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	prev, plan, cycleStart, cycleEnd, err := lockProfile(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	allotment, err := domain.AllotmentFor(plan)
	if err != nil {
		return nil, fmt.Errorf("stored plan %q: %w", plan, err)
	}

	if _, err := tx.Exec(ctx, `UPDATE profiles SET credits = $2, updated_at = NOW() WHERE id = $1`, userID, allotment); err != nil {
		return nil, err
	}

	if delta := allotment - prev; delta != 0 {
		if err := insertHistory(ctx, tx, userID, domain.ActionCreditAdjustment, plan, delta, cycleStart, cycleEnd); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &domain.CreditChange{Previous: prev, Current: allotment}, nil
}

// RenewCycle resets the balance to the plan allotment, advances the cycle end
// by one month (from now when the subscription never had one), activates the
// subscription, and appends a manual_renewal history row. Unused credits from
// the prior cycle are deliberately discarded; there is no rollover.
func (r *PostgresRepository) RenewCycle(ctx context.Context, userID uuid.UUID) (*domain.RenewalResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	_, plan, cycleStart, cycleEnd, err := lockProfile(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	allotment, err := domain.AllotmentFor(plan)
	if err != nil {
		return nil, fmt.Errorf("stored plan %q: %w", plan, err)
	}

	// The cycle end was read under the row lock, so computing the new one
	// here is still a single writer's view.
	newCycleEnd := domain.NextCycleEnd(cycleEnd, time.Now().UTC())

	result := domain.RenewalResult{}
	query := `
		UPDATE profiles
		SET credits = $2,
		    subscription_status = 'active',
		    cycle_end = $3,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING credits, cycle_end
	`
	if err := tx.QueryRow(ctx, query, userID, allotment, newCycleEnd).Scan(&result.NewCredits, &result.NewCycleEnd); err != nil {
		return nil, err
	}

	if err := insertHistory(ctx, tx, userID, domain.ActionManualRenewal, plan, allotment, cycleStart, &result.NewCycleEnd); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdatePlan persists a plan change and its history row. Credits are never
// touched here.
func (r *PostgresRepository) UpdatePlan(ctx context.Context, userID uuid.UUID, plan domain.Plan) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, _, cycleStart, cycleEnd, err := lockProfile(ctx, tx, userID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE profiles SET plan = $2, updated_at = NOW() WHERE id = $1`, userID, plan); err != nil {
		return err
	}

	if err := insertHistory(ctx, tx, userID, domain.ActionPlanChange, plan, 0, cycleStart, cycleEnd); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ListHistory returns the audit log for a user, newest first.
func (r *PostgresRepository) ListHistory(ctx context.Context, userID uuid.UUID) ([]domain.HistoryEntry, error) {
	query := `
		SELECT id, user_id, action_type, plan_snapshot, credits_added, cycle_start, cycle_end, created_at
		FROM subscription_history
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.HistoryEntry{}
	for rows.Next() {
		var e domain.HistoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.ActionType, &e.PlanSnapshot, &e.CreditsAdded, &e.CycleStart, &e.CycleEnd, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RecordCancellationRequest appends a cancellation_request history entry
// with the current plan and cycle snapshot. The subscription status is left
// alone; applying the cancellation is a separate human decision.
func (r *PostgresRepository) RecordCancellationRequest(ctx context.Context, userID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, plan, cycleStart, cycleEnd, err := lockProfile(ctx, tx, userID)
	if err != nil {
		return err
	}

	if err := insertHistory(ctx, tx, userID, domain.ActionCancellationRequest, plan, 0, cycleStart, cycleEnd); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ListReports returns all reported images, newest first.
func (r *PostgresRepository) ListReports(ctx context.Context) ([]domain.ReportRecord, error) {
	query := `
		SELECT id, user_id, image_path, reason, cost, status, created_at
		FROM reported_images
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []domain.ReportRecord{}
	for rows.Next() {
		var rec domain.ReportRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.ImagePath, &rec.Reason, &rec.Cost, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, err
		}
		reports = append(reports, rec)
	}
	return reports, rows.Err()
}

// GetReportByID retrieves a single report.
func (r *PostgresRepository) GetReportByID(ctx context.Context, reportID uuid.UUID) (*domain.ReportRecord, error) {
	query := `
		SELECT id, user_id, image_path, reason, cost, status, created_at
		FROM reported_images
		WHERE id = $1
	`
	var rec domain.ReportRecord
	err := r.db.QueryRow(ctx, query, reportID).Scan(&rec.ID, &rec.UserID, &rec.ImagePath, &rec.Reason, &rec.Cost, &rec.Status, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// RefundReport resolves a pending report as refunded and credits the cost
// back to the reporter, atomically. The status flip uses a compare-and-swap
// on 'pending' so a second refund of the same report finds no row and the
// account is never double-credited. If crediting fails the transaction rolls
// back and the report stays pending.
func (r *PostgresRepository) RefundReport(ctx context.Context, reportID uuid.UUID) (*domain.RefundResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	result := domain.RefundResult{ReportID: reportID}
	claim := `
		UPDATE reported_images
		SET status = 'refunded'
		WHERE id = $1 AND status = 'pending'
		RETURNING user_id, cost
	`
	err = tx.QueryRow(ctx, claim, reportID).Scan(&result.UserID, &result.Cost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyReportMiss(ctx, reportID)
		}
		return nil, err
	}

	credit := `
		UPDATE profiles
		SET credits = credits + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING credits
	`
	err = tx.QueryRow(ctx, credit, result.UserID, result.Cost).Scan(&result.NewBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &result, nil
}

// RejectReport resolves a pending report as rejected. No ledger interaction.
func (r *PostgresRepository) RejectReport(ctx context.Context, reportID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE reported_images SET status = 'rejected' WHERE id = $1 AND status = 'pending'`, reportID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.classifyReportMiss(ctx, reportID)
	}
	return nil
}

// DeleteReport removes the report record. The stored image asset is deleted
// by the caller beforehand, best-effort.
func (r *PostgresRepository) DeleteReport(ctx context.Context, reportID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM reported_images WHERE id = $1`, reportID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrReportNotFound
	}
	return nil
}

// classifyReportMiss tells a missing report apart from one that has already
// been resolved.
func (r *PostgresRepository) classifyReportMiss(ctx context.Context, reportID uuid.UUID) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reported_images WHERE id = $1)`, reportID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrReportNotFound
	}
	return ErrReportNotPending
}

// lockProfile reads the balance, plan, and cycle snapshot of a profile under
// FOR UPDATE, pinning the row for the remainder of the transaction.
func lockProfile(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (credits int, plan domain.Plan, cycleStart, cycleEnd *time.Time, err error) {
	query := `SELECT credits, plan, cycle_start, cycle_end FROM profiles WHERE id = $1 FOR UPDATE`
	err = tx.QueryRow(ctx, query, userID).Scan(&credits, &plan, &cycleStart, &cycleEnd)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrSubscriptionNotFound
		}
		return 0, "", nil, nil, err
	}
	return credits, plan, cycleStart, cycleEnd, nil
}

// insertHistory appends one immutable audit row inside the caller's
// transaction.
func insertHistory(ctx context.Context, tx pgx.Tx, userID uuid.UUID, action string, plan domain.Plan, creditsAdded int, cycleStart, cycleEnd *time.Time) error {
	query := `
		INSERT INTO subscription_history (id, user_id, action_type, plan_snapshot, credits_added, cycle_start, cycle_end, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	_, err := tx.Exec(ctx, query, uuid.New(), userID, action, plan, creditsAdded, cycleStart, cycleEnd)
	return err
}
