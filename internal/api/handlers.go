/**
 * @description
 * This file contains the HTTP handler functions for the credits-service.
 * Handlers are responsible for parsing incoming requests, calling the
 * appropriate business logic in the service layer, and mapping service
 * errors onto HTTP statuses. Every operation reports success or failure
 * explicitly; nothing here is fire-and-forget.
 */

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/getmidia/credits-service/internal/app"
	"github.com/getmidia/credits-service/internal/domain"
	"github.com/getmidia/credits-service/internal/store"
)

// Handler holds the application service that handlers will interact with.
type Handler struct {
	service *app.Service
}

// NewHandler creates a new Handler with the given service.
func NewHandler(service *app.Service) *Handler {
	return &Handler{service: service}
}

// handleGetUser returns a user's subscription detail.
func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUIDParam(w, r, "userID")
	if !ok {
		return
	}

	sub, err := h.service.GetSubscription(r.Context(), userID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sub)
}

// handleSetCredits replaces a user's credit balance with an exact value.
func (h *Handler) handleSetCredits(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUIDParam(w, r, "userID")
	if !ok {
		return
	}

	var req struct {
		Credits *int `json:"credits"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Credits == nil {
		respondWithErrorMessage(w, http.StatusBadRequest, "request body must contain an integer 'credits' field")
		return
	}

	change, err := h.service.SetCredits(r.Context(), userID, *req.Credits)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, change)
}

// handleRenewCycle performs a manual subscription renewal.
func (h *Handler) handleRenewCycle(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUIDParam(w, r, "userID")
	if !ok {
		return
	}

	result, err := h.service.RenewCycle(r.Context(), userID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// handleChangePlan updates the subscription plan. Credits are untouched;
// the caller follows up with sync-credits if the operator confirmed it.
func (h *Handler) handleChangePlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUIDParam(w, r, "userID")
	if !ok {
		return
	}

	var req struct {
		Plan string `json:"plan"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.ChangePlan(r.Context(), userID, domain.Plan(req.Plan)); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"plan": req.Plan})
}

// handleSyncCreditsToPlan sets the balance to the current plan's allotment.
func (h *Handler) handleSyncCreditsToPlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUIDParam(w, r, "userID")
	if !ok {
		return
	}

	change, err := h.service.SyncCreditsToPlan(r.Context(), userID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, change)
}

// handleUpdateFinance applies a finance-tab edit.
func (h *Handler) handleUpdateFinance(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUIDParam(w, r, "userID")
	if !ok {
		return
	}

	var upd domain.FinanceUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		respondWithErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.UpdateFinance(r.Context(), userID, upd); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": string(upd.Status)})
}

// handleUpdateRegistration updates registration fields.
func (h *Handler) handleUpdateRegistration(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUIDParam(w, r, "userID")
	if !ok {
		return
	}

	var upd domain.RegistrationUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		respondWithErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.UpdateRegistration(r.Context(), userID, upd); err != nil {
		respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleResetPassword sets a new password for the target account.
func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUIDParam(w, r, "userID")
	if !ok {
		return
	}
	adminID, _ := AdminFromContext(r.Context())

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.ResetPassword(r.Context(), adminID, userID, req.Password); err != nil {
		respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCancellationRequest records a cancellation ticket without touching
// the subscription status.
func (h *Handler) handleCancellationRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUIDParam(w, r, "userID")
	if !ok {
		return
	}

	if err := h.service.RecordCancellationRequest(r.Context(), userID); err != nil {
		respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListHistory returns a user's subscription history, newest first.
func (h *Handler) handleListHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUIDParam(w, r, "userID")
	if !ok {
		return
	}

	entries, err := h.service.ListHistory(r.Context(), userID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, entries)
}

// handleListReports returns all reported images, newest first.
func (h *Handler) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.ListReports(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, reports)
}

// handleRefundReport refunds a pending report.
func (h *Handler) handleRefundReport(w http.ResponseWriter, r *http.Request) {
	reportID, ok := parseUUIDParam(w, r, "reportID")
	if !ok {
		return
	}

	result, err := h.service.RefundReport(r.Context(), reportID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// handleRejectReport rejects a pending report.
func (h *Handler) handleRejectReport(w http.ResponseWriter, r *http.Request) {
	reportID, ok := parseUUIDParam(w, r, "reportID")
	if !ok {
		return
	}

	if err := h.service.RejectReport(r.Context(), reportID); err != nil {
		respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteReport deletes a report record and, best-effort, its stored
// image asset. A storage failure surfaces as a warning in the response body,
// distinct from a hard failure.
func (h *Handler) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	reportID, ok := parseUUIDParam(w, r, "reportID")
	if !ok {
		return
	}

	warning, err := h.service.DeleteReport(r.Context(), reportID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	payload := map[string]string{"deleted": reportID.String()}
	if warning != "" {
		payload["warning"] = warning
	}
	respondWithJSON(w, http.StatusOK, payload)
}

// parseUUIDParam extracts and validates a UUID URL parameter, writing a 400
// response on failure.
func parseUUIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		respondWithErrorMessage(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// respondWithError maps service and store errors onto HTTP statuses, keeping
// the error text intact for the admin UI toast.
func respondWithError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, app.ErrInvalidAmount),
		errors.Is(err, app.ErrPasswordTooShort),
		errors.Is(err, domain.ErrUnknownPlan):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrSubscriptionNotFound),
		errors.Is(err, store.ErrReportNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrReportNotPending),
		errors.Is(err, store.ErrStatusConflict),
		errors.Is(err, app.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, app.ErrRateLimited):
		status = http.StatusTooManyRequests
	}
	respondWithErrorMessage(w, status, err.Error())
}

func respondWithErrorMessage(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON is a helper function to write JSON responses.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
