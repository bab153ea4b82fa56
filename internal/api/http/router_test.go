package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/match-service/internal/api/http/handlers"
	"github.com/spec-kit/match-service/internal/auth"
	"github.com/spec-kit/match-service/internal/events"
	"github.com/spec-kit/match-service/internal/observability"
	"github.com/spec-kit/match-service/internal/repository/memory"
	"github.com/spec-kit/match-service/internal/service"
)

type testServer struct {
	app       *fiber.App
	directory *service.DirectoryService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	participants := memory.NewParticipantStore()
	hub := events.NewHub(logger, events.HubOptions{SubscriberBuffer: 8})
	tokens := auth.NewTokenManager("router-test", 10)

	matches := service.NewMatchService(service.MatchDependencies{
		MatchRepo:   memory.NewMatchStore(),
		Directory:   participants,
		Broadcaster: events.Instrument(hub, metrics),
		Logger:      logger,
	})
	directory := service.NewDirectoryService(service.DirectoryDependencies{
		ParticipantRepo: participants,
		Purger:          matches,
		Tokens:          tokens,
		BcryptCost:      bcrypt.MinCost,
		Logger:          logger,
	})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger)})
	RegisterMiddlewares(app, logger, metrics, 5*time.Second, "*")
	eventsHandler := handlers.NewEventsHandler(hub, time.Second, logger)
	t.Cleanup(eventsHandler.Close)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("match-service", "test", nil),
		Auth:           handlers.NewAuthHandler(directory),
		Matches:        handlers.NewMatchesHandler(matches),
		Events:         eventsHandler,
		Admin:          handlers.NewAdminHandler(directory),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, participants),
		Metrics:        metrics.Handler(),
	})
	return &testServer{app: app, directory: directory}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, raw)
		}
	}
	return resp.StatusCode, decoded
}

type account struct {
	id    string
	token string
}

func (s *testServer) register(t *testing.T, path string, body map[string]any) account {
	t.Helper()
	status, resp := s.do(t, nethttp.MethodPost, path, "", body)
	if status != nethttp.StatusCreated {
		t.Fatalf("register %s: status %d body %v", path, status, resp)
	}
	data := resp["data"].(map[string]any)
	return account{
		id:    data["participant"].(map[string]any)["id"].(string),
		token: data["auth"].(map[string]any)["token"].(string),
	}
}

func errorCode(resp map[string]any) string {
	errBody, _ := resp["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

func TestMatchLifecycleOverHTTP(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	startup := srv.register(t, "/auth/startups/register", map[string]any{
		"name": "Paywise", "email": "team@paywise.io", "password": "password-1", "industry": "fintech", "stage": 2,
	})
	incubator := srv.register(t, "/auth/incubators/register", map[string]any{
		"name": "Acme", "email": "hi@acme.vc", "password": "password-2", "focus_areas": []string{"fintech"}, "preferred_stage": 2,
	})
	stranger := srv.register(t, "/auth/startups/register", map[string]any{
		"name": "Other", "email": "x@other.io", "password": "password-3", "industry": "health", "stage": 1,
	})

	status, resp := srv.do(t, nethttp.MethodGet, "/matches/suggestions", startup.token, nil)
	if status != nethttp.StatusOK || resp["count"].(float64) != 1 {
		t.Fatalf("suggestions: %d %v", status, resp)
	}

	status, resp = srv.do(t, nethttp.MethodPost, "/matches", startup.token, map[string]any{"match_with": incubator.id})
	if status != nethttp.StatusCreated {
		t.Fatalf("create: %d %v", status, resp)
	}
	match := resp["data"].(map[string]any)
	matchID := match["id"].(string)
	if match["compatibility_score"].(float64) != 80 || match["status"] != "pending" {
		t.Fatalf("created match = %v", match)
	}

	status, resp = srv.do(t, nethttp.MethodPost, "/matches", incubator.token, map[string]any{"match_with": startup.id})
	if status != nethttp.StatusConflict || errorCode(resp) != "DUPLICATE_MATCH" {
		t.Fatalf("duplicate: %d %v", status, resp)
	}
	existing := resp["error"].(map[string]any)["details"].(map[string]any)["match"].(map[string]any)
	if existing["id"] != matchID {
		t.Fatalf("duplicate details = %v", existing)
	}

	status, resp = srv.do(t, nethttp.MethodPut, "/matches/"+matchID, incubator.token, map[string]any{"status": "accepted"})
	if status != nethttp.StatusForbidden || errorCode(resp) != "FORBIDDEN" {
		t.Fatalf("incubator accept: %d %v", status, resp)
	}
	status, resp = srv.do(t, nethttp.MethodPut, "/matches/"+matchID, startup.token, map[string]any{"status": "pending"})
	if status != nethttp.StatusBadRequest || errorCode(resp) != "VALIDATION_FAILED" {
		t.Fatalf("pending transition: %d %v", status, resp)
	}
	status, resp = srv.do(t, nethttp.MethodPut, "/matches/"+matchID, startup.token, map[string]any{"status": "accepted"})
	if status != nethttp.StatusOK || resp["data"].(map[string]any)["status"] != "accepted" {
		t.Fatalf("startup accept: %d %v", status, resp)
	}

	status, _ = srv.do(t, nethttp.MethodGet, "/matches/"+matchID, stranger.token, nil)
	if status != nethttp.StatusForbidden {
		t.Fatalf("stranger get: %d", status)
	}
	status, resp = srv.do(t, nethttp.MethodGet, "/matches", incubator.token, nil)
	if status != nethttp.StatusOK || resp["count"].(float64) != 1 {
		t.Fatalf("list: %d %v", status, resp)
	}

	status, _ = srv.do(t, nethttp.MethodDelete, "/matches/"+matchID, stranger.token, nil)
	if status != nethttp.StatusForbidden {
		t.Fatalf("stranger delete: %d", status)
	}
	status, _ = srv.do(t, nethttp.MethodDelete, "/matches/"+matchID, incubator.token, nil)
	if status != nethttp.StatusOK {
		t.Fatalf("delete: %d", status)
	}
	status, resp = srv.do(t, nethttp.MethodGet, "/matches/"+matchID, startup.token, nil)
	if status != nethttp.StatusNotFound || errorCode(resp) != "NOT_FOUND" {
		t.Fatalf("get deleted: %d %v", status, resp)
	}
}

func TestAuthEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	acct := srv.register(t, "/auth/startups/register", map[string]any{
		"name": "Paywise", "email": "team@paywise.io", "password": "password-1", "industry": "fintech", "stage": 2,
	})

	status, resp := srv.do(t, nethttp.MethodPost, "/auth/startups/register", "", map[string]any{
		"name": "Again", "email": "team@paywise.io", "password": "password-1", "industry": "fintech",
	})
	if status != nethttp.StatusConflict || errorCode(resp) != "CONFLICT" {
		t.Fatalf("duplicate email: %d %v", status, resp)
	}

	status, resp = srv.do(t, nethttp.MethodPost, "/auth/login", "", map[string]any{"email": "team@paywise.io", "password": "nope-nope"})
	if status != nethttp.StatusUnauthorized {
		t.Fatalf("bad login: %d %v", status, resp)
	}
	status, _ = srv.do(t, nethttp.MethodPost, "/auth/login", "", map[string]any{"email": "team@paywise.io", "password": "password-1"})
	if status != nethttp.StatusOK {
		t.Fatalf("login: %d", status)
	}

	status, resp = srv.do(t, nethttp.MethodGet, "/auth/me", acct.token, nil)
	if status != nethttp.StatusOK {
		t.Fatalf("me: %d %v", status, resp)
	}
	profile := resp["data"].(map[string]any)
	if profile["id"] != acct.id || profile["startup_profile"].(map[string]any)["industry"] != "fintech" {
		t.Fatalf("profile = %v", profile)
	}

	status, _ = srv.do(t, nethttp.MethodGet, "/auth/me", "", nil)
	if status != nethttp.StatusUnauthorized {
		t.Fatalf("anonymous me: %d", status)
	}
}

func TestAdminRemovesParticipant(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	if _, err := srv.directory.EnsureAdmin(context.Background(), "root@platform.io", "admin-password"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	status, resp := srv.do(t, nethttp.MethodPost, "/auth/login", "", map[string]any{"email": "root@platform.io", "password": "admin-password"})
	if status != nethttp.StatusOK {
		t.Fatalf("admin login: %d %v", status, resp)
	}
	adminToken := resp["data"].(map[string]any)["auth"].(map[string]any)["token"].(string)

	startup := srv.register(t, "/auth/startups/register", map[string]any{
		"name": "Paywise", "email": "team@paywise.io", "password": "password-1", "industry": "fintech", "stage": 2,
	})
	incubator := srv.register(t, "/auth/incubators/register", map[string]any{
		"name": "Acme", "email": "hi@acme.vc", "password": "password-2", "focus_areas": []string{"fintech"},
	})
	if status, _ := srv.do(t, nethttp.MethodPost, "/matches", startup.token, map[string]any{"match_with": incubator.id}); status != nethttp.StatusCreated {
		t.Fatalf("create: %d", status)
	}

	status, resp = srv.do(t, nethttp.MethodPost, "/matches", adminToken, map[string]any{"match_with": incubator.id})
	if status != nethttp.StatusForbidden || errorCode(resp) != "INVALID_ROLE" {
		t.Fatalf("admin proposal: %d %v", status, resp)
	}
	status, _ = srv.do(t, nethttp.MethodGet, "/matches", adminToken, nil)
	if status != nethttp.StatusForbidden {
		t.Fatalf("admin list: %d", status)
	}

	status, _ = srv.do(t, nethttp.MethodDelete, "/admin/participants/"+incubator.id, startup.token, nil)
	if status != nethttp.StatusForbidden {
		t.Fatalf("non-admin removal: %d", status)
	}
	status, resp = srv.do(t, nethttp.MethodDelete, "/admin/participants/"+incubator.id, adminToken, nil)
	if status != nethttp.StatusOK || resp["data"].(map[string]any)["matches_removed"].(float64) != 1 {
		t.Fatalf("removal: %d %v", status, resp)
	}

	status, resp = srv.do(t, nethttp.MethodGet, "/matches", startup.token, nil)
	if status != nethttp.StatusOK || resp["count"].(float64) != 0 {
		t.Fatalf("matches after removal: %d %v", status, resp)
	}
	status, _ = srv.do(t, nethttp.MethodGet, "/auth/me", incubator.token, nil)
	if status != nethttp.StatusUnauthorized {
		t.Fatalf("removed participant still authenticated: %d", status)
	}
}

func TestOperationalEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	status, resp := srv.do(t, nethttp.MethodGet, "/health/live", "", nil)
	if status != nethttp.StatusOK || resp["status"] != "alive" {
		t.Fatalf("live: %d %v", status, resp)
	}
	status, _ = srv.do(t, nethttp.MethodGet, "/health/ready", "", nil)
	if status != nethttp.StatusOK {
		t.Fatalf("ready: %d", status)
	}

	status, resp = srv.do(t, nethttp.MethodGet, "/nowhere", "", nil)
	if status != nethttp.StatusNotFound || errorCode(resp) != "NOT_FOUND" {
		t.Fatalf("unknown route: %d %v", status, resp)
	}

	req := httptest.NewRequest(nethttp.MethodGet, "/metrics", nil)
	metricsResp, err := srv.app.Test(req, -1)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer metricsResp.Body.Close()
	body, _ := io.ReadAll(metricsResp.Body)
	if metricsResp.StatusCode != nethttp.StatusOK || !strings.Contains(string(body), "match_service_http_requests_total") {
		t.Fatalf("metrics exposition missing request counter: %d", metricsResp.StatusCode)
	}
}
