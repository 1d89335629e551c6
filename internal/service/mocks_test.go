package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/sakif/game-exchange/internal/apperror"
	"github.com/sakif/game-exchange/internal/model"
	"github.com/sakif/game-exchange/internal/notify"
	"github.com/sakif/game-exchange/internal/repository"
)

// In-memory fakes for the repository interfaces. They reproduce the store
// behaviors the services lean on — conflict on duplicate email, conflict on
// a second offer per game, the conditional accept gate — without a
// database.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockUserRepo struct {
	users  map[int64]*model.User
	nextID int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*model.User)}
}

func (m *mockUserRepo) add(name, email string) *model.User {
	m.nextID++
	u := &model.User{
		ID:            m.nextID,
		Name:          name,
		Email:         strings.ToLower(email),
		PasswordHash:  "hash",
		StreetAddress: "1 Mock Lane",
	}
	m.users[u.ID] = u
	return u
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	user.Email = strings.ToLower(user.Email)
	for _, u := range m.users {
		if u.Email == user.Email {
			return apperror.Conflict("user with that email already exists")
		}
	}
	m.nextID++
	user.ID = m.nextID
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	email = strings.ToLower(email)
	for _, u := range m.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFoundMsg("user not found with email " + email)
}

func (m *mockUserRepo) UpdateDetails(_ context.Context, id int64, name, streetAddress *string) error {
	u, ok := m.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	if name != nil {
		u.Name = *name
	}
	if streetAddress != nil {
		u.StreetAddress = *streetAddress
	}
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	u, ok := m.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.PasswordHash = passwordHash
	return nil
}

type mockSessionRepo struct {
	tokens map[int64]string // userID → current token
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{tokens: make(map[int64]string)}
}

func (m *mockSessionRepo) Replace(_ context.Context, userID int64, token string) error {
	m.tokens[userID] = token
	return nil
}

func (m *mockSessionRepo) UserIDByToken(_ context.Context, token string) (int64, error) {
	for userID, t := range m.tokens {
		if t == token {
			return userID, nil
		}
	}
	return 0, apperror.NotFoundMsg("no session for token")
}

type mockGameRepo struct {
	games  map[int64]*model.Game
	nextID int64
}

func newMockGameRepo() *mockGameRepo {
	return &mockGameRepo{games: make(map[int64]*model.Game)}
}

func (m *mockGameRepo) add(ownerID int64) *model.Game {
	m.nextID++
	g := &model.Game{
		ID:        m.nextID,
		Name:      "Chrono Trigger",
		Publisher: "Square",
		Year:      1995,
		Condition: model.ConditionGood,
		Platforms: []string{"snes"},
		OwnedBy:   ownerID,
	}
	m.games[g.ID] = g
	return g
}

func (m *mockGameRepo) Create(_ context.Context, game *model.Game) error {
	m.nextID++
	game.ID = m.nextID
	stored := *game
	m.games[game.ID] = &stored
	return nil
}

func (m *mockGameRepo) GetByID(_ context.Context, id int64) (*model.Game, error) {
	g, ok := m.games[id]
	if !ok {
		return nil, apperror.NotFound("game", id)
	}
	result := *g
	return &result, nil
}

func (m *mockGameRepo) OwnerID(_ context.Context, id int64) (int64, error) {
	g, ok := m.games[id]
	if !ok {
		return 0, apperror.NotFound("game", id)
	}
	return g.OwnedBy, nil
}

func (m *mockGameRepo) Update(_ context.Context, game *model.Game) error {
	g, ok := m.games[game.ID]
	if !ok {
		return apperror.NotFound("game", game.ID)
	}
	g.Name = game.Name
	g.Publisher = game.Publisher
	g.Year = game.Year
	g.Condition = game.Condition
	g.PreviousOwners = game.PreviousOwners
	if game.Platforms != nil {
		g.Platforms = append([]string(nil), game.Platforms...)
	}
	return nil
}

func (m *mockGameRepo) Patch(_ context.Context, id int64, patch repository.GamePatch) error {
	g, ok := m.games[id]
	if !ok {
		return apperror.NotFound("game", id)
	}
	if patch.Name != nil {
		g.Name = *patch.Name
	}
	if patch.Publisher != nil {
		g.Publisher = *patch.Publisher
	}
	if patch.Year != nil {
		g.Year = *patch.Year
	}
	if patch.Condition != nil {
		g.Condition = *patch.Condition
	}
	if patch.PreviousOwners != nil {
		g.PreviousOwners = *patch.PreviousOwners
	}
	if patch.Platforms != nil {
		g.Platforms = append([]string(nil), patch.Platforms...)
	}
	return nil
}

func (m *mockGameRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.games[id]; !ok {
		return apperror.NotFound("game", id)
	}
	delete(m.games, id)
	return nil
}

// mockExchangeRepo holds pending offers and, like the real store, performs
// the accept transition against the game records directly.
type mockExchangeRepo struct {
	mu     sync.Mutex
	offers map[int64]int64 // gameID → offeree userID
	games  *mockGameRepo
}

func newMockExchangeRepo(games *mockGameRepo) *mockExchangeRepo {
	return &mockExchangeRepo{offers: make(map[int64]int64), games: games}
}

func (m *mockExchangeRepo) Create(_ context.Context, gameID, toUserID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.offers[gameID]; exists {
		return apperror.Conflict(fmt.Sprintf("an offer already exists for game %d", gameID))
	}
	m.offers[gameID] = toUserID
	return nil
}

func (m *mockExchangeRepo) GetByGameID(_ context.Context, gameID int64) (*model.Exchange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	toUserID, ok := m.offers[gameID]
	if !ok {
		return nil, apperror.NotFound("exchange", gameID)
	}
	return &model.Exchange{GameID: gameID, ToUserID: toUserID}, nil
}

func (m *mockExchangeRepo) Delete(_ context.Context, gameID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.offers[gameID]; !ok {
		return apperror.NotFound("exchange", gameID)
	}
	delete(m.offers, gameID)
	return nil
}

func (m *mockExchangeRepo) Accept(_ context.Context, gameID, toUserID int64) (*model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if offeree, ok := m.offers[gameID]; !ok || offeree != toUserID {
		return nil, apperror.NotFound("exchange", gameID)
	}
	delete(m.offers, gameID)

	g, ok := m.games.games[gameID]
	if !ok {
		return nil, apperror.NotFound("game", gameID)
	}
	g.OwnedBy = toUserID
	g.PreviousOwners++
	result := *g
	return &result, nil
}

// mockPublisher records published events for assertions.
type mockPublisher struct {
	events []notify.Event
}

func (m *mockPublisher) Publish(ev notify.Event) {
	m.events = append(m.events, ev)
}

// kinds returns the kinds of all recorded events, in publish order.
func (m *mockPublisher) kinds() []notify.Kind {
	kinds := make([]notify.Kind, len(m.events))
	for i, ev := range m.events {
		kinds[i] = ev.Kind
	}
	return kinds
}
