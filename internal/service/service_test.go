package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/spendlog/spendlog/internal/auth"
	"github.com/spendlog/spendlog/internal/metrics"
	"github.com/spendlog/spendlog/internal/model"
	"github.com/spendlog/spendlog/internal/repository/sqlite"
)

const testSecret = "service-test-secret-thirty-two-bytes"

var cheapParams = auth.Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

// stepClock advances one second on every call so creation order is strict.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type memoryProfileCache struct {
	users map[string]*model.User
	hits  int
}

func (c *memoryProfileCache) GetUser(_ context.Context, id string) (*model.User, error) {
	u, ok := c.users[id]
	if !ok {
		return nil, nil
	}
	c.hits++
	return u, nil
}

func (c *memoryProfileCache) SetUser(_ context.Context, u *model.User) error {
	c.users[u.ID] = u
	return nil
}

type ServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *sqlite.Store
	tokens   *auth.TokenManager
	recorder *metrics.InMemoryRecorder
	clock    *stepClock
	auth     *AuthService
	expenses *ExpenseService
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctx = context.Background()

	store, err := sqlite.Open(s.ctx, ":memory:")
	require.NoError(s.T(), err)
	s.store = store

	s.clock = &stepClock{t: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
	tokens, err := auth.NewTokenManager(testSecret, auth.WithClock(s.clock.Now))
	require.NoError(s.T(), err)
	s.tokens = tokens

	s.recorder = metrics.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.auth = NewAuthService(store, tokens, s.recorder, logger,
		WithHashParams(cheapParams),
		WithAuthClock(s.clock.Now),
	)
	s.expenses = NewExpenseService(store, s.recorder, logger)
	s.expenses.SetClock(s.clock.Now)
}

func (s *ServiceTestSuite) TearDownTest() {
	if s.store != nil {
		s.store.Close()
	}
}

func (s *ServiceTestSuite) register(name, email, password string) string {
	id, err := s.auth.Register(s.ctx, RegisterInput{Name: name, Email: email, Password: password})
	require.NoError(s.T(), err)
	return id
}

func (s *ServiceTestSuite) create(owner, title string, amount model.Amount, category string) *model.Expense {
	e, err := s.expenses.Create(s.ctx, owner, CreateExpenseInput{Title: title, Amount: &amount, Category: category})
	require.NoError(s.T(), err)
	return e
}

func (s *ServiceTestSuite) TestRegisterThenLogin() {
	id := s.register("A", "a@x.com", "secret")
	require.NotEmpty(s.T(), id)

	res, err := s.auth.Login(s.ctx, "a@x.com", "secret")
	require.NoError(s.T(), err)
	assert.NotEmpty(s.T(), res.Token)
	assert.Equal(s.T(), id, res.User.ID)

	ac, err := s.tokens.Verify("Bearer " + res.Token)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), id, ac.UserID)

	snap := s.recorder.Snapshot()
	assert.Equal(s.T(), uint64(1), snap.UsersRegistered)
	assert.Equal(s.T(), uint64(1), snap.LoginsSucceeded)
}

func (s *ServiceTestSuite) TestRegisterTrimsAndHashes() {
	id := s.register("  Alice ", " alice@example.com ", "pw")

	user, err := s.store.GetUserByID(s.ctx, id)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Alice", user.Name)
	assert.Equal(s.T(), "alice@example.com", user.Email)
	assert.NotEqual(s.T(), "pw", user.PasswordHash)
	assert.Contains(s.T(), user.PasswordHash, "$argon2id$")
}

func (s *ServiceTestSuite) TestRegisterValidation() {
	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"missing name", RegisterInput{Email: "a@x.com", Password: "pw"}},
		{"blank name", RegisterInput{Name: "   ", Email: "a@x.com", Password: "pw"}},
		{"missing email", RegisterInput{Name: "A", Password: "pw"}},
		{"missing password", RegisterInput{Name: "A", Email: "a@x.com"}},
		{"all empty", RegisterInput{}},
	}

	for _, tt := range tests {
		_, err := s.auth.Register(s.ctx, tt.input)
		assert.ErrorIs(s.T(), err, ErrValidation, tt.name)
	}
}

func (s *ServiceTestSuite) TestRegisterDuplicateEmail() {
	s.register("A", "a@x.com", "secret")

	_, err := s.auth.Register(s.ctx, RegisterInput{Name: "Other", Email: "a@x.com", Password: "different"})
	assert.ErrorIs(s.T(), err, ErrConflict)

	var count int
	require.NoError(s.T(), s.store.DB().QueryRow(`SELECT COUNT(*) FROM users WHERE email = ?`, "a@x.com").Scan(&count))
	assert.Equal(s.T(), 1, count)
}

func (s *ServiceTestSuite) TestLoginFailures() {
	s.register("A", "a@x.com", "secret")

	_, err := s.auth.Login(s.ctx, "a@x.com", "wrong")
	assert.ErrorIs(s.T(), err, ErrUnauthorized)

	_, err = s.auth.Login(s.ctx, "nobody@x.com", "secret")
	assert.ErrorIs(s.T(), err, ErrUnauthorized)

	_, err = s.auth.Login(s.ctx, "A@X.COM", "secret")
	assert.ErrorIs(s.T(), err, ErrUnauthorized, "email match is case-sensitive")

	_, err = s.auth.Login(s.ctx, "", "secret")
	assert.ErrorIs(s.T(), err, ErrValidation)

	_, err = s.auth.Login(s.ctx, "a@x.com", "")
	assert.ErrorIs(s.T(), err, ErrValidation)

	assert.Equal(s.T(), uint64(3), s.recorder.Snapshot().LoginsFailed)
}

func (s *ServiceTestSuite) TestLoginLegacyBcrypt() {
	hash, err := bcrypt.GenerateFromPassword([]byte("legacy-pw"), bcrypt.MinCost)
	require.NoError(s.T(), err)

	now := time.Now().UTC()
	require.NoError(s.T(), s.store.CreateUser(s.ctx, &model.User{
		ID:           "01HZZZZZZZZZZZZZZZZZZZZZZZ",
		Name:         "Legacy",
		Email:        "legacy@x.com",
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}))

	res, err := s.auth.Login(s.ctx, "legacy@x.com", "legacy-pw")
	require.NoError(s.T(), err)
	assert.NotEmpty(s.T(), res.Token)
}

func (s *ServiceTestSuite) TestProfile() {
	id := s.register("A", "a@x.com", "secret")

	user, err := s.auth.Profile(s.ctx, id)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "A", user.Name)
	assert.Equal(s.T(), "a@x.com", user.Email)

	_, err = s.auth.Profile(s.ctx, "01HZZZZZZZZZZZZZZZZZZZZZZZ")
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *ServiceTestSuite) TestProfileCache() {
	cache := &memoryProfileCache{users: map[string]*model.User{}}
	svc := NewAuthService(s.store, s.tokens, nil, nil, WithHashParams(cheapParams), WithProfileCache(cache))

	id, err := svc.Register(s.ctx, RegisterInput{Name: "A", Email: "a@x.com", Password: "pw"})
	require.NoError(s.T(), err)

	_, err = svc.Profile(s.ctx, id)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 0, cache.hits)
	assert.Contains(s.T(), cache.users, id)

	user, err := svc.Profile(s.ctx, id)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, cache.hits)
	assert.Equal(s.T(), id, user.ID)
}

func (s *ServiceTestSuite) TestCreateExpense() {
	owner := s.register("A", "a@x.com", "pw")

	e := s.create(owner, " Lunch ", 20000, "food")
	assert.Equal(s.T(), "Lunch", e.Title)
	assert.Equal(s.T(), model.CategoryFood, e.Category)
	assert.Equal(s.T(), owner, e.OwnerID)
	assert.NotEmpty(s.T(), e.ID)
	assert.False(s.T(), e.CreatedAt.IsZero())
	assert.Equal(s.T(), e.CreatedAt, e.UpdatedAt)
	assert.Equal(s.T(), uint64(1), s.recorder.Snapshot().ExpensesCreated)
}

func (s *ServiceTestSuite) TestCreateExpenseValidation() {
	owner := s.register("A", "a@x.com", "pw")
	amount := model.Amount(100)
	zero := model.Amount(0)
	negative := model.Amount(-5)

	tests := []struct {
		name  string
		input CreateExpenseInput
	}{
		{"missing title", CreateExpenseInput{Amount: &amount, Category: "Food"}},
		{"blank title", CreateExpenseInput{Title: "  ", Amount: &amount, Category: "Food"}},
		{"missing amount", CreateExpenseInput{Title: "x", Category: "Food"}},
		{"zero amount", CreateExpenseInput{Title: "x", Amount: &zero, Category: "Food"}},
		{"negative amount", CreateExpenseInput{Title: "x", Amount: &negative, Category: "Food"}},
		{"missing category", CreateExpenseInput{Title: "x", Amount: &amount}},
		{"unknown category", CreateExpenseInput{Title: "x", Amount: &amount, Category: "Groceries"}},
	}

	for _, tt := range tests {
		_, err := s.expenses.Create(s.ctx, owner, tt.input)
		assert.ErrorIs(s.T(), err, ErrValidation, tt.name)
	}

	list, err := s.expenses.List(s.ctx, owner)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), list)
}

func (s *ServiceTestSuite) TestListNewestFirst() {
	owner := s.register("A", "a@x.com", "pw")
	e1 := s.create(owner, "e1", 100, "Food")
	e2 := s.create(owner, "e2", 200, "Travel")
	e3 := s.create(owner, "e3", 300, "Bills")

	list, err := s.expenses.List(s.ctx, owner)
	require.NoError(s.T(), err)
	require.Len(s.T(), list, 3)
	assert.Equal(s.T(), []string{e3.ID, e2.ID, e1.ID}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func (s *ServiceTestSuite) TestListEmptyAndFiltered() {
	owner := s.register("A", "a@x.com", "pw")

	list, err := s.expenses.List(s.ctx, owner)
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), list)
	assert.Empty(s.T(), list)

	s.create(owner, "a", 100, "Food")
	s.create(owner, "b", 200, "Travel")
	s.create(owner, "c", 300, "Bills")

	list, err = s.expenses.List(s.ctx, owner, "food,bills")
	require.NoError(s.T(), err)
	assert.Len(s.T(), list, 2)

	list, err = s.expenses.List(s.ctx, owner, "All")
	require.NoError(s.T(), err)
	assert.Len(s.T(), list, 3)

	_, err = s.expenses.List(s.ctx, owner, "Groceries")
	assert.ErrorIs(s.T(), err, ErrValidation)
}

func (s *ServiceTestSuite) TestUpdateCategoryOnly() {
	owner := s.register("A", "a@x.com", "pw")
	e := s.create(owner, "Lunch", 20000, "Food")

	travel := "Travel"
	got, err := s.expenses.Update(s.ctx, owner, e.ID, UpdateExpenseInput{Category: &travel})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Lunch", got.Title)
	assert.Equal(s.T(), model.Amount(20000), got.Amount)
	assert.Equal(s.T(), model.CategoryTravel, got.Category)
	assert.Equal(s.T(), e.CreatedAt, got.CreatedAt)
	assert.True(s.T(), got.UpdatedAt.After(e.UpdatedAt))
}

func (s *ServiceTestSuite) TestUpdateRejectsExplicitZeroAndEmpty() {
	owner := s.register("A", "a@x.com", "pw")
	e := s.create(owner, "Lunch", 20000, "Food")

	zero := model.Amount(0)
	_, err := s.expenses.Update(s.ctx, owner, e.ID, UpdateExpenseInput{Amount: &zero})
	assert.ErrorIs(s.T(), err, ErrValidation)

	empty := ""
	_, err = s.expenses.Update(s.ctx, owner, e.ID, UpdateExpenseInput{Title: &empty})
	assert.ErrorIs(s.T(), err, ErrValidation)

	bad := "Groceries"
	_, err = s.expenses.Update(s.ctx, owner, e.ID, UpdateExpenseInput{Category: &bad})
	var verr *ValidationError
	require.True(s.T(), errors.As(err, &verr))
	assert.Equal(s.T(), "category", verr.Field)

	list, err := s.expenses.List(s.ctx, owner)
	require.NoError(s.T(), err)
	require.Len(s.T(), list, 1)
	assert.Equal(s.T(), model.Amount(20000), list[0].Amount)
}

func (s *ServiceTestSuite) TestCrossUserIsolation() {
	alice := s.register("A", "a@x.com", "pw")
	bob := s.register("B", "b@x.com", "pw")
	e := s.create(alice, "Lunch", 20000, "Food")

	title := "mine now"
	_, err := s.expenses.Update(s.ctx, bob, e.ID, UpdateExpenseInput{Title: &title})
	assert.ErrorIs(s.T(), err, ErrNotFound)

	err = s.expenses.Delete(s.ctx, bob, e.ID)
	assert.ErrorIs(s.T(), err, ErrNotFound)

	bobs, err := s.expenses.List(s.ctx, bob)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), bobs)

	alices, err := s.expenses.List(s.ctx, alice)
	require.NoError(s.T(), err)
	require.Len(s.T(), alices, 1)
	assert.Equal(s.T(), "Lunch", alices[0].Title)
}

func (s *ServiceTestSuite) TestMalformedIDIsNotFound() {
	owner := s.register("A", "a@x.com", "pw")

	title := "x"
	_, err := s.expenses.Update(s.ctx, owner, "not-an-id", UpdateExpenseInput{Title: &title})
	assert.ErrorIs(s.T(), err, ErrNotFound)
	assert.ErrorIs(s.T(), s.expenses.Delete(s.ctx, owner, "../etc"), ErrNotFound)
}

func (s *ServiceTestSuite) TestDelete() {
	owner := s.register("A", "a@x.com", "pw")
	e := s.create(owner, "Lunch", 20000, "Food")

	require.NoError(s.T(), s.expenses.Delete(s.ctx, owner, e.ID))
	assert.ErrorIs(s.T(), s.expenses.Delete(s.ctx, owner, e.ID), ErrNotFound)
	assert.Equal(s.T(), uint64(1), s.recorder.Snapshot().ExpensesDeleted)
}

func (s *ServiceTestSuite) TestSummary() {
	owner := s.register("A", "a@x.com", "pw")
	s.create(owner, "Lunch", 20000, "Food")
	s.create(owner, "Bus", 5000, "Travel")

	summary, err := s.expenses.Summary(s.ctx, owner, "", nil)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, summary.Count)
	assert.Equal(s.T(), model.Amount(25000), summary.Total)
	assert.Equal(s.T(), map[model.Category]model.Amount{
		model.CategoryFood:   20000,
		model.CategoryTravel: 5000,
	}, summary.Categories.Map())
	require.Len(s.T(), summary.Monthly, 1)
	assert.Equal(s.T(), "May 2024", summary.Monthly[0].Month)

	food, err := s.expenses.Summary(s.ctx, owner, "food", nil)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), model.Amount(20000), food.Total)

	_, err = s.expenses.Summary(s.ctx, owner, "Groceries", nil)
	assert.ErrorIs(s.T(), err, ErrValidation)
	assert.Equal(s.T(), uint64(3), s.recorder.Snapshot().SummaryDurationCount)
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func TestValidationError(t *testing.T) {
	err := invalid("amount", "amount must be greater than zero")
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "amount: amount must be greater than zero", err.Error())
}
