package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/Devansh-g1/CryptoGig/internal/core/domain"
	"github.com/Devansh-g1/CryptoGig/internal/core/ports"
)

func TestProfileHandler_Update(t *testing.T) {
	stub := &stubIdentityService{
		updateProfileFn: func(_ context.Context, userID string, update ports.ProfileUpdate) (*domain.User, error) {
			if userID != "u1" {
				t.Fatalf("unexpected user id %s", userID)
			}
			if update.Bio == nil || *update.Bio != "Go developer" {
				t.Fatalf("bio not forwarded: %+v", update)
			}
			return &domain.User{ID: userID, Bio: "Go developer"}, nil
		},
	}
	h := NewProfileHandler(stub)

	_, c, rec := newTestContext(t, http.MethodPut, "/api/profile", `{"bio":"Go developer"}`)
	c.Set("user_id", "u1")
	c.Set("role", "freelancer")
	renderError(h.Update(c), c)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"success":true`) {
		t.Errorf("missing success flag: %s", rec.Body.String())
	}
}

func TestProfileHandler_Get_NotFound(t *testing.T) {
	stub := &stubIdentityService{
		resolveFn: func(context.Context, string) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
	}
	h := NewProfileHandler(stub)

	_, c, rec := newTestContext(t, http.MethodGet, "/api/profile/ghost", "")
	c.SetParamNames("id")
	c.SetParamValues("ghost")
	renderError(h.Get(c), c)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
