package handler

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cradlehealth/cradle/internal/auth"
	"github.com/cradlehealth/cradle/internal/store"
)

func newProfileHandler(t *testing.T) (*ProfileHandler, int64) {
	t.Helper()
	db := openTestDB(t)
	user, err := store.NewUserStore(db).Create("Priya", "priya@example.com", "h", "user", nil)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return NewProfileHandler(store.NewUserStore(db), slog.Default()), user.ID
}

func profileRequest(t *testing.T, userID int64, method string, body any) *http.Request {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, "/api/user/profile", jsonBody(t, body))
	} else {
		req = httptest.NewRequest(method, "/api/user/profile", nil)
	}
	ctx := auth.WithAuth(req.Context(), auth.AuthContext{UserID: userID, Email: "priya@example.com", Role: "user"})
	return req.WithContext(ctx)
}

func TestProfileGet(t *testing.T) {
	h, userID := newProfileHandler(t)

	rec := httptest.NewRecorder()
	h.Get(rec, profileRequest(t, userID, "GET", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	user := decodeBody(t, rec)["user"].(map[string]any)
	if user["email"] != "priya@example.com" {
		t.Errorf("email = %q", user["email"])
	}
}

func TestProfileUpdate(t *testing.T) {
	h, userID := newProfileHandler(t)

	rec := httptest.NewRecorder()
	h.Update(rec, profileRequest(t, userID, "PUT", map[string]any{
		"name":                 "Priya S",
		"phone":                "+15551234567",
		"pregnancyWeek":        24,
		"expectedDeliveryDate": "2026-01-10",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	user := decodeBody(t, rec)["user"].(map[string]any)
	if user["name"] != "Priya S" {
		t.Errorf("name = %q", user["name"])
	}
	if user["pregnancyWeek"] != float64(24) {
		t.Errorf("pregnancyWeek = %v", user["pregnancyWeek"])
	}
}

func TestProfileUpdateValidation(t *testing.T) {
	h, userID := newProfileHandler(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{"phone": "+1555"}},
		{"pregnancyWeek out of range", map[string]any{"name": "Priya", "pregnancyWeek": 60}},
		{"bad delivery date", map[string]any{"name": "Priya", "expectedDeliveryDate": "next spring"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Update(rec, profileRequest(t, userID, "PUT", tt.body))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}
