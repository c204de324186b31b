package handler_test

// Shared fixtures for handler tests: in-memory repositories and a router
// wired the same way internal/server does it, minus the network. Requests
// go through the real auth middleware, so the tests cover the full
// cookie → session → context → handler path.

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkowalczyk/dsn-service/internal/auth"
	"github.com/mkowalczyk/dsn-service/internal/handler"
	"github.com/mkowalczyk/dsn-service/internal/model"
	"github.com/mkowalczyk/dsn-service/internal/service"
)

type memUserRepo struct{ users []model.User }

func (m *memUserRepo) Load(context.Context) ([]model.User, error) {
	out := make([]model.User, len(m.users))
	copy(out, m.users)
	return out, nil
}

func (m *memUserRepo) Replace(_ context.Context, users []model.User) error {
	m.users = users
	return nil
}

type memPostRepo struct{ posts []model.Post }

func (m *memPostRepo) Load(context.Context) ([]model.Post, error) {
	out := make([]model.Post, len(m.posts))
	copy(out, m.posts)
	return out, nil
}

func (m *memPostRepo) Replace(_ context.Context, posts []model.Post) error {
	m.posts = posts
	return nil
}

type memMessageRepo struct{ messages []model.Message }

func (m *memMessageRepo) Load(context.Context) ([]model.Message, error) {
	out := make([]model.Message, len(m.messages))
	copy(out, m.messages)
	return out, nil
}

func (m *memMessageRepo) Replace(_ context.Context, messages []model.Message) error {
	m.messages = messages
	return nil
}

// testEnv bundles the wired router and the services behind it.
type testEnv struct {
	router   *chi.Mux
	sessions *auth.SessionService
	identity *service.IdentityService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	sessions, err := auth.NewSessionService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewSessionService: %v", err)
	}

	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)
	identity := service.NewIdentityService(&memUserRepo{}, passwords, logger)
	feed := service.NewFeedService(&memPostRepo{}, logger)
	messages := service.NewMessageService(&memMessageRepo{}, logger)

	google := auth.NewGoogleProvider("")
	microsoft := auth.NewMicrosoftProvider()
	github := auth.NewGitHubProvider("", "", "")

	authHandler := handler.NewAuthHandler(identity, sessions, google, microsoft, github, logger)
	feedHandler := handler.NewFeedHandler(feed, identity, logger)
	messageHandler := handler.NewMessageHandler(messages, logger)

	// Same route layout as internal/server, reduced to what the tests hit.
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(sessions))
			r.Get("/me", authHandler.HandleMe)
			r.Get("/user", authHandler.HandleUser)
			r.Get("/informations", feedHandler.HandleList)
			r.Get("/informations/{id}", feedHandler.HandleGet)
			r.Get("/author/{username}", feedHandler.HandleByAuthor)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(sessions))
			r.Post("/informations", feedHandler.HandleCreate)
			r.Put("/informations/{id}", feedHandler.HandleUpdate)
			r.Delete("/informations/{id}", feedHandler.HandleDelete)
			r.Post("/informations/{id}/like", feedHandler.HandleLike)
			r.Post("/messages/send", messageHandler.HandleSend)
			r.Get("/messages/conversations", messageHandler.HandleConversations)
		})
	})

	return &testEnv{router: r, sessions: sessions, identity: identity}
}

// do performs one request against the router. A non-empty username gets a
// valid session cookie, like a logged-in browser.
func (e *testEnv) do(t *testing.T, method, path, body, username string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	if username != "" {
		token, err := e.sessions.Generate(username)
		if err != nil {
			t.Fatalf("generating session token: %v", err)
		}
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: token})
	}

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// register creates an account directly through the service, bypassing HTTP.
func (e *testEnv) register(t *testing.T, username string) {
	t.Helper()
	_, err := e.identity.RegisterLocal(context.Background(), username, username+"@example.com", "secret1")
	if err != nil {
		t.Fatalf("registering %s: %v", username, err)
	}
}
