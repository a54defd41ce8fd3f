package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/getmidia/credits-service/internal/app"
	"github.com/getmidia/credits-service/internal/domain"
	"github.com/getmidia/credits-service/internal/store"
)

type handlerRepoStub struct {
	store.Repository

	setCalled bool
	setUserID uuid.UUID
	setValue  int
}

func (s *handlerRepoStub) SetCredits(ctx context.Context, userID uuid.UUID, credits int) (*domain.CreditChange, error) {
	s.setCalled = true
	s.setUserID = userID
	s.setValue = credits
	return &domain.CreditChange{Previous: 30, Current: credits}, nil
}

func newTestRouter(repo store.Repository) http.Handler {
	svc := app.NewService(repo, nil, nil, nil, nil, 0)
	return NewRouter(NewHandler(svc), testSecret)
}

func adminRequest(t *testing.T, method, target, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	token := signToken(t, jwt.MapClaims{
		"sub":  "admin-1",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestSetCreditsRoundTrip(t *testing.T) {
	repo := &handlerRepoStub{}
	router := newTestRouter(repo)
	userID := uuid.New()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminRequest(t, http.MethodPut, "/admin/users/"+userID.String()+"/credits", `{"credits": 80}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !repo.setCalled || repo.setUserID != userID || repo.setValue != 80 {
		t.Fatalf("expected SetCredits(%s, 80), got called=%v user=%s value=%d", userID, repo.setCalled, repo.setUserID, repo.setValue)
	}

	var change domain.CreditChange
	if err := json.Unmarshal(rec.Body.Bytes(), &change); err != nil {
		t.Fatalf("response body is not JSON: %v", err)
	}
	if change.Previous != 30 || change.Current != 80 {
		t.Fatalf("expected previous=30 current=80, got %+v", change)
	}
}

func TestSetCreditsRequiresCreditsField(t *testing.T) {
	repo := &handlerRepoStub{}
	router := newTestRouter(repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminRequest(t, http.MethodPut, "/admin/users/"+uuid.NewString()+"/credits", `{}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a body without credits, got %d", rec.Code)
	}
	if repo.setCalled {
		t.Fatal("an incomplete body must never reach the service")
	}
}

func TestSetCreditsRejectsMalformedUserID(t *testing.T) {
	repo := &handlerRepoStub{}
	router := newTestRouter(repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminRequest(t, http.MethodPut, "/admin/users/not-a-uuid/credits", `{"credits": 80}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed user id, got %d", rec.Code)
	}
	if repo.setCalled {
		t.Fatal("a malformed user id must never reach the service")
	}
}

func TestRespondWithErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid amount", err: app.ErrInvalidAmount, want: http.StatusBadRequest},
		{name: "short password", err: app.ErrPasswordTooShort, want: http.StatusBadRequest},
		{name: "unknown plan", err: domain.ErrUnknownPlan, want: http.StatusBadRequest},
		{name: "subscription missing", err: store.ErrSubscriptionNotFound, want: http.StatusNotFound},
		{name: "report missing", err: store.ErrReportNotFound, want: http.StatusNotFound},
		{name: "report already resolved", err: store.ErrReportNotPending, want: http.StatusConflict},
		{name: "status conflict", err: store.ErrStatusConflict, want: http.StatusConflict},
		{name: "invalid transition", err: app.ErrInvalidTransition, want: http.StatusConflict},
		{name: "rate limited", err: app.ErrRateLimited, want: http.StatusTooManyRequests},
		{name: "storage failure", err: fmt.Errorf("database unreachable"), want: http.StatusInternalServerError},
		{name: "wrapped sentinel", err: fmt.Errorf("failed to change plan: %w", domain.ErrUnknownPlan), want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondWithError(rec, tt.err)

			if rec.Code != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, rec.Code)
			}

			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("response body is not JSON: %v", err)
			}
			if body["error"] == "" {
				t.Fatal("error message must be surfaced verbatim, got empty body")
			}
		})
	}
}

func TestRespondWithJSONSetsContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	respondWithJSON(rec, http.StatusOK, map[string]int{"credits": 80})

	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected application/json, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
