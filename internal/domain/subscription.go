/**
 * @description
 * This file defines the core domain models for the credits-service.
 * It includes the Subscription struct that maps to the profiles table
 * and the DTOs exchanged between the API, service, and store layers.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Subscription represents one customer's subscription and credit state.
// This struct maps directly to the `profiles` table in the database.
type Subscription struct {
	UserID        uuid.UUID  `json:"user_id"`
	Email         string     `json:"email"`
	FullName      string     `json:"full_name"`
	TaxID         string     `json:"tax_id"`
	Phone         string     `json:"phone"`
	Plan          Plan       `json:"plan"`
	Status        Status     `json:"status"`
	Credits       int        `json:"credits"` // never negative after any ledger operation
	CycleStart    *time.Time `json:"cycle_start,omitempty"`
	CycleEnd      *time.Time `json:"cycle_end,omitempty"`
	PaymentMethod string     `json:"payment_method"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CreditChange reports the before/after balance of a ledger operation.
type CreditChange struct {
	Previous int `json:"previous_credits"`
	Current  int `json:"new_credits"`
}

// RenewalResult is returned by a manual cycle renewal.
type RenewalResult struct {
	NewCredits  int       `json:"new_credits"`
	NewCycleEnd time.Time `json:"new_cycle_end"`
}

// FinanceUpdate carries the fields an administrator can edit on the
// finance tab. Status changes are validated against the transition table
// before they reach the store.
type FinanceUpdate struct {
	Status        Status     `json:"status"`
	CycleStart    *time.Time `json:"cycle_start"`
	CycleEnd      *time.Time `json:"cycle_end"`
	PaymentMethod string     `json:"payment_method"`
}

// RegistrationUpdate carries the editable registration fields.
type RegistrationUpdate struct {
	FullName string `json:"full_name"`
	TaxID    string `json:"tax_id"`
	Phone    string `json:"phone"`
}
