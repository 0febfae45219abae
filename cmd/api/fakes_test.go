package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"paginaflex/internal/auth"
	"paginaflex/internal/domain/accounts"
	"paginaflex/internal/domain/carts"
	"paginaflex/internal/domain/catalog"
	"paginaflex/internal/domain/imports"
	"paginaflex/internal/domain/orders"
	"paginaflex/internal/domain/storage"
	"paginaflex/internal/filters"
	"paginaflex/internal/importer"
	"paginaflex/internal/ratelimiter"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// The fakes embed the store interfaces so only the methods a test touches
// need an implementation.

type fakeAccounts struct {
	accounts.Store
	mu       sync.Mutex
	users    map[int64]*accounts.User
	profiles map[int64]*accounts.ClientProfile
	refresh  map[int64]string
}

func (f *fakeAccounts) GetByID(_ context.Context, id int64) (*accounts.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, accounts.ErrNotFound
}

func (f *fakeAccounts) GetByUsername(_ context.Context, username string) (*accounts.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, accounts.ErrNotFound
}

func (f *fakeAccounts) GetClientProfile(_ context.Context, userID int64) (*accounts.ClientProfile, error) {
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	return nil, accounts.ErrNoClientProfile
}

func (f *fakeAccounts) SaveRefreshToken(_ context.Context, userID int64, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh[userID] = token
	return nil
}

func (f *fakeAccounts) GetRefreshToken(_ context.Context, userID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refresh[userID], nil
}

func (f *fakeAccounts) DeleteRefreshToken(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.refresh, userID)
	return nil
}

type fakeCatalog struct {
	catalog.Store
	products []catalog.Product
	defs     []catalog.AttributeDefinition
	values   map[int64][]string
	tree     []catalog.CategoryWithChildren
	imageURL map[int64]string
}

func (f *fakeCatalog) CategoryScope(_ context.Context, id int64) ([]int64, error) {
	return []int64{id}, nil
}

func (f *fakeCatalog) ListFilterDefinitions(_ context.Context, _ int64) ([]catalog.AttributeDefinition, error) {
	return f.defs, nil
}

func (f *fakeCatalog) ListProducts(_ context.Context, _ catalog.Criteria, limit, offset int) ([]catalog.Product, int, error) {
	end := min(offset+limit, len(f.products))
	if offset >= end {
		return nil, len(f.products), nil
	}
	return f.products[offset:end], len(f.products), nil
}

func (f *fakeCatalog) DistinctAttributeValues(_ context.Context, definitionID int64, _ catalog.Criteria) ([]string, error) {
	return f.values[definitionID], nil
}

func (f *fakeCatalog) ListCategoryTree(_ context.Context) ([]catalog.CategoryWithChildren, error) {
	return f.tree, nil
}

func (f *fakeCatalog) GetProductsByIDs(_ context.Context, ids []int64) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range f.products {
		for _, id := range ids {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (f *fakeCatalog) ProductExistsBySKU(_ context.Context, sku string) (bool, error) {
	for _, p := range f.products {
		if p.SKU == sku {
			return true, nil
		}
	}
	return false, nil
}

type fakeImports struct {
	imports.Store
	logs      map[int64]*imports.Log
	errors    map[int64][]imports.RowError
	createErr error
}

func (f *fakeImports) Create(_ context.Context, l *imports.Log) error {
	if f.createErr != nil {
		return f.createErr
	}
	l.ID = int64(len(f.logs) + 1)
	cp := *l
	f.logs[l.ID] = &cp
	return nil
}

func (f *fakeImports) GetByID(_ context.Context, id int64) (*imports.Log, error) {
	if l, ok := f.logs[id]; ok {
		return l, nil
	}
	return nil, imports.ErrLogNotFound
}

func (f *fakeImports) LatestProcessing(_ context.Context, userID int64) (*imports.Log, error) {
	for _, l := range f.logs {
		if l.UserID != nil && *l.UserID == userID && l.Status == imports.StatusProcessing {
			return l, nil
		}
	}
	return nil, imports.ErrLogNotFound
}

func (f *fakeImports) Cancel(_ context.Context, id int64) error {
	l, ok := f.logs[id]
	if !ok {
		return imports.ErrLogNotFound
	}
	if l.Status != imports.StatusProcessing {
		return imports.ErrNotProcessing
	}
	l.Status = imports.StatusCancelled
	return nil
}

func (f *fakeImports) ListErrors(_ context.Context, logID int64) ([]imports.RowError, error) {
	return f.errors[logID], nil
}

type fakeOrders struct {
	orders.Store
	details map[int64]*orders.Detail
}

func (f *fakeOrders) GetDetail(_ context.Context, id int64) (*orders.Detail, error) {
	if d, ok := f.details[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, orders.ErrOrderNotFound
}

type memoryCarts struct {
	mu    sync.Mutex
	carts map[int64]*carts.Cart
}

func (m *memoryCarts) Get(_ context.Context, userID int64) (*carts.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.carts[userID]; ok {
		cp := *c
		cp.Items = append([]carts.Item(nil), c.Items...)
		return &cp, nil
	}
	return &carts.Cart{UserID: userID, Items: []carts.Item{}}, nil
}

func (m *memoryCarts) Save(_ context.Context, c *carts.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[c.UserID] = c
	return nil
}

func (m *memoryCarts) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	return nil
}

const (
	adminID  int64 = 1
	clientID int64 = 2
	plainID  int64 = 3
)

type testEnv struct {
	app      *application
	accounts *fakeAccounts
	catalog  *fakeCatalog
	imports  *fakeImports
	orders   *fakeOrders
	carts    *memoryCarts
	handler  http.Handler
}

func newTestUser(t *testing.T, id int64, username string, role accounts.Role) *accounts.User {
	t.Helper()
	u := &accounts.User{ID: id, Username: username, Email: username + "@example.com", Role: role, IsActive: true}
	require.NoError(t, u.Password.Set("secreto"))
	return u
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	acc := &fakeAccounts{
		users: map[int64]*accounts.User{
			adminID:  newTestUser(t, adminID, "admin", accounts.RoleAdmin),
			clientID: newTestUser(t, clientID, "ferreteria_sur", accounts.RoleClient),
			plainID:  newTestUser(t, plainID, "sin_perfil", accounts.RoleClient),
		},
		profiles: map[int64]*accounts.ClientProfile{
			clientID: {UserID: clientID, Name: "Ferretería Sur", Discount: decimal.NewFromInt(10)},
		},
		refresh: map[int64]string{},
	}
	cat := &fakeCatalog{values: map[int64][]string{}, imageURL: map[int64]string{}}
	imp := &fakeImports{logs: map[int64]*imports.Log{}, errors: map[int64][]imports.RowError{}}
	ord := &fakeOrders{details: map[int64]*orders.Detail{}}
	mc := &memoryCarts{carts: map[int64]*carts.Cart{}}

	numbers, err := orders.NewNumberGenerator("test")
	require.NoError(t, err)
	store := storage.NewContainer(nil, numbers)
	store.Catalog = cat
	store.Accounts = acc
	store.Imports = imp
	store.Orders = ord

	stager, err := importer.NewStager(t.TempDir(), 1<<20)
	require.NoError(t, err)

	logger := zap.NewNop().Sugar()
	app := &application{
		config: config{
			env:         "test",
			auth:        authConfig{basic: basicConfig{user: "ops", pass: "ops-pass"}},
			rateLimiter: rateLimiterConfig{requestsPerTimeFrame: 100, enabled: false},
			imports:     importConfig{maxUploadMB: 1},
		},
		store:         store,
		logger:        logger,
		authenticator: auth.NewJWTAuthenticator("access", "refresh", "paginaflex", "paginaflex"),
		rateLimiter:   ratelimiter.NewFixedWindowLimiter(100, 0),
		carts:         mc,
		filters:       filters.NewEngine(cat),
		importers:     importer.NewRegistry(cat, acc, imp, logger),
		stager:        stager,
	}

	return &testEnv{
		app:      app,
		accounts: acc,
		catalog:  cat,
		imports:  imp,
		orders:   ord,
		carts:    mc,
		handler:  app.mount(),
	}
}

func (e *testEnv) token(t *testing.T, userID int64) string {
	t.Helper()
	u := e.accounts.users[userID]
	access, _, err := e.app.authenticator.GenerateTokens(u.ID, string(u.Role))
	require.NoError(t, err)
	return access
}

func (e *testEnv) do(t *testing.T, method, target string, userID int64, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req.Header.Set("Authorization", "Bearer "+e.token(t, userID))
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}
