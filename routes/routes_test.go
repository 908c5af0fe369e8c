package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dosada05/raceday/handlers"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
)

var testSecret = []byte("routes-test-secret")

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

func newTestRouter() chi.Router {
	router := chi.NewRouter()
	SetupRoutes(router, Handlers{
		Health: handlers.NewHealthHandler(okPinger{}),
	}, Options{JWTSecret: testSecret, AllowedOrigins: []string{"*"}})
	return router
}

func token(t *testing.T, clubID int, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"club_id": clubID,
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestRouteAccess(t *testing.T) {
	router := newTestRouter()
	clubToken := token(t, 3, "club")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"health is public", http.MethodGet, "/healthz", "", http.StatusOK},
		{"players need a token", http.MethodGet, "/players", "", http.StatusUnauthorized},
		{"race teams need a token", http.MethodGet, "/race-teams/assigned", "", http.StatusUnauthorized},
		{"dashboard is admin only", http.MethodGet, "/admin/dashboard", clubToken, http.StatusForbidden},
		{"payment status is admin only", http.MethodPatch, "/teams/5/payment", clubToken, http.StatusForbidden},
		{"event update is admin only", http.MethodPut, "/events/1", clubToken, http.StatusForbidden},
		{"event config update is admin only", http.MethodPatch, "/events/1/config", clubToken, http.StatusForbidden},
		{"bib assignment is admin only", http.MethodPost, "/bibs/assign", clubToken, http.StatusForbidden},
		{"race creation needs a token", http.MethodPost, "/races", "", http.StatusUnauthorized},
		{"unknown route", http.MethodGet, "/nowhere", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
			}
		})
	}
}
