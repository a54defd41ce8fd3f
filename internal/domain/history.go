package domain

import (
	"time"

	"github.com/google/uuid"
)

// History action types. These are persisted values; renaming one is a
// data migration, not a refactor.
const (
	ActionManualRenewal       = "manual_renewal"
	ActionPlanChange          = "plan_change"
	ActionCreditAdjustment    = "credit_adjustment"
	ActionCancellationRequest = "cancellation_request"
)

// HistoryEntry is one immutable row of the subscription audit log.
// Entries are only ever inserted; business logic never reads them back.
type HistoryEntry struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	ActionType    string     `json:"action_type"`
	PlanSnapshot  Plan       `json:"plan_snapshot"`
	CreditsAdded  int        `json:"credits_added"` // signed delta applied by the action
	CycleStart    *time.Time `json:"cycle_start,omitempty"`
	CycleEnd      *time.Time `json:"cycle_end,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
