package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pavelanni/quizforge/internal/model"
)

func TestIssueVerify(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, err := m.Issue(model.User{ID: 7, Email: "t@example.com", Role: model.UserRoleTeacher})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	id, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.UserID != 7 {
		t.Errorf("UserID = %d, want 7", id.UserID)
	}
	if id.Email != "t@example.com" {
		t.Errorf("Email = %q", id.Email)
	}
	if id.Role != model.UserRoleTeacher {
		t.Errorf("Role = %q", id.Role)
	}
}

func TestVerifyRejects(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	user := model.User{ID: 1, Email: "s@example.com", Role: model.UserRoleStudent}

	expired, err := NewManager("test-secret", -time.Minute).Issue(user)
	if err != nil {
		t.Fatalf("Issue expired: %v", err)
	}
	otherKey, err := NewManager("other-secret", time.Hour).Issue(user)
	if err != nil {
		t.Fatalf("Issue other key: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"expired", expired},
		{"wrong key", otherKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Verify(tt.token); err == nil {
				t.Error("expected verification to fail")
			}
		})
	}
}

func TestRequire(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	teacherToken, err := m.Issue(model.User{ID: 1, Email: "t@example.com", Role: model.UserRoleTeacher})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	studentToken, err := m.Issue(model.User{ID: 2, Email: "s@example.com", Role: model.UserRoleStudent})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var gotIdentity *model.Identity
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIdentity = model.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	teacherOnly := m.Require(model.UserRoleTeacher)(inner)

	tests := []struct {
		name       string
		authorize  func(*http.Request)
		wantStatus int
	}{
		{"no token", func(r *http.Request) {}, http.StatusUnauthorized},
		{"malformed header", func(r *http.Request) {
			r.Header.Set("Authorization", "Basic abc")
		}, http.StatusUnauthorized},
		{"invalid token", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer bogus")
		}, http.StatusUnauthorized},
		{"wrong role", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+studentToken)
		}, http.StatusForbidden},
		{"bearer header", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+teacherToken)
		}, http.StatusOK},
		{"cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: CookieName, Value: teacherToken})
		}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotIdentity = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.authorize(req)
			rec := httptest.NewRecorder()
			teacherOnly.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if gotIdentity == nil || gotIdentity.Email != "t@example.com" {
					t.Errorf("identity not propagated: %+v", gotIdentity)
				}
			}
		})
	}
}

func TestRequireAnyRole(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	token, err := m.Issue(model.User{ID: 3, Email: "s@example.com", Role: model.UserRoleStudent})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	anyRole := m.Require("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	anyRole.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
