package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReportStatus is the resolution state of a reported image.
type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportRefunded ReportStatus = "refunded"
	ReportRejected ReportStatus = "rejected"
)

// ReportRecord is a user complaint about a generated image. Cost is the
// number of credits originally charged for the generation and is what a
// refund gives back.
type ReportRecord struct {
	ID        uuid.UUID    `json:"id"`
	UserID    uuid.UUID    `json:"user_id"`
	ImagePath string       `json:"image_path"`
	Reason    string       `json:"reason"`
	Cost      int          `json:"cost"`
	Status    ReportStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// RefundResult is returned after a successful report refund.
type RefundResult struct {
	ReportID   uuid.UUID `json:"report_id"`
	UserID     uuid.UUID `json:"user_id"`
	Cost       int       `json:"cost"`
	NewBalance int       `json:"new_balance"`
}
