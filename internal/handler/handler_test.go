package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/game-exchange/internal/auth"
	"github.com/sakif/game-exchange/internal/handler"
	"github.com/sakif/game-exchange/internal/notify"
	"github.com/sakif/game-exchange/internal/repository/sqlite"
	"github.com/sakif/game-exchange/internal/service"
)

// nopPublisher drops events; handler tests don't assert on notifications.
type nopPublisher struct{}

func (nopPublisher) Publish(notify.Event) {}

// testAPI is the full HTTP surface over an in-memory database: real
// services, real auth middleware, real router. Requests go through exactly
// the path production traffic takes.
type testAPI struct {
	router chi.Router
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	passwords := auth.NewPasswordService(4)
	resolver := auth.NewSessionResolver(db.Sessions)
	guard := service.NewOwnershipGuard(db.Games)

	authService := service.NewAuthService(db.Users, db.Sessions, passwords, nopPublisher{}, logger)
	gameService := service.NewGameService(db.Games, guard, logger)
	exchangeService := service.NewExchangeService(db.Games, db.Users, db.Exchanges, guard, nopPublisher{}, logger)

	userHandler := handler.NewUserHandler(authService, logger)
	gameHandler := handler.NewGameHandler(gameService, logger)
	exchangeHandler := handler.NewExchangeHandler(exchangeService, logger)

	router := chi.NewRouter()
	router.Post("/user", userHandler.HandleRegister)
	router.Put("/user", userHandler.HandleLogin)
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(resolver))

		r.Patch("/user", userHandler.HandleUpdate)

		r.Post("/game", gameHandler.HandleCreate)
		r.Get("/game/{id}", gameHandler.HandleGet)
		r.Put("/game/{id}", gameHandler.HandleUpdate)
		r.Patch("/game/{id}", gameHandler.HandlePatch)
		r.Delete("/game/{id}", gameHandler.HandleDelete)

		r.Post("/exchange/{gameID}", exchangeHandler.HandleCreate)
		r.Get("/exchange/{gameID}", exchangeHandler.HandleGet)
		r.Delete("/exchange/{gameID}", exchangeHandler.HandleDelete)

		r.Post("/receive/{gameID}", exchangeHandler.HandleReceive)
	})

	return &testAPI{router: router}
}

// do executes a request against the router. body may be a raw JSON string
// or any value to marshal; token, when non-empty, becomes a bearer header.
func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

// register creates an account and returns its session token.
func (a *testAPI) register(t *testing.T, name, email string) string {
	t.Helper()

	rr := a.do(t, http.MethodPost, "/user", "", map[string]string{
		"name":          name,
		"email":         email,
		"password":      "secret",
		"streetAddress": "1 Test Street",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register %s: status = %d, body = %s", email, rr.Code, rr.Body.String())
	}

	var res struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&res); err != nil {
		t.Fatalf("decoding register response: %v", err)
	}
	return res.Token
}

// createGame stores a game for the token's user and returns its id.
func (a *testAPI) createGame(t *testing.T, token string) int64 {
	t.Helper()

	rr := a.do(t, http.MethodPost, "/game", token, map[string]any{
		"name":      "Chrono Trigger",
		"publisher": "Square",
		"year":      1995,
		"condition": "good",
		"platforms": []string{"snes"},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create game: status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var game struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&game); err != nil {
		t.Fatalf("decoding game response: %v", err)
	}
	return game.ID
}

func gamePath(id int64) string {
	return fmt.Sprintf("/game/%d", id)
}
