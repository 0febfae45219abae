package importer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"paginaflex/internal/domain/accounts"
	"paginaflex/internal/domain/catalog"
	"paginaflex/internal/domain/imports"
)

type fakeLogs struct {
	mu          sync.Mutex
	nextID      int64
	logs        map[int64]*imports.Log
	errs        []imports.RowError
	checkpoints []int
	cancelAt    int
	addErrorErr error
	failed      []int64
}

var _ imports.Store = (*fakeLogs)(nil)

func newFakeLogs() *fakeLogs {
	return &fakeLogs{logs: map[int64]*imports.Log{}}
}

func (f *fakeLogs) Create(_ context.Context, l *imports.Log) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	l.ID = f.nextID
	l.CreatedAt = time.Now()
	cp := *l
	f.logs[l.ID] = &cp
	return nil
}

func (f *fakeLogs) SaveProgress(_ context.Context, id int64, processed int) (imports.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.logs[id]
	if !ok {
		return "", imports.ErrLogNotFound
	}
	f.checkpoints = append(f.checkpoints, processed)
	l.Processed = processed
	if f.cancelAt > 0 && processed >= f.cancelAt {
		l.Status = imports.StatusCancelled
	}
	return l.Status, nil
}

func (f *fakeLogs) Finish(_ context.Context, l *imports.Log) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if stored, ok := f.logs[l.ID]; ok && stored.Status == imports.StatusCancelled {
		l.Status = imports.StatusCancelled
	}
	cp := *l
	f.logs[l.ID] = &cp
	return nil
}

func (f *fakeLogs) MarkFailed(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, id)
	if l, ok := f.logs[id]; ok {
		l.Status = imports.StatusError
	}
	return nil
}

func (f *fakeLogs) Cancel(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
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

func (f *fakeLogs) AddError(_ context.Context, e *imports.RowError) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErrorErr != nil {
		return f.addErrorErr
	}
	e.ID = int64(len(f.errs) + 1)
	f.errs = append(f.errs, *e)
	return nil
}

func (f *fakeLogs) GetByID(_ context.Context, id int64) (*imports.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.logs[id]
	if !ok {
		return nil, imports.ErrLogNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeLogs) LatestProcessing(_ context.Context, userID int64) (*imports.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *imports.Log
	for _, l := range f.logs {
		if l.UserID != nil && *l.UserID == userID && l.Status == imports.StatusProcessing {
			if latest == nil || l.ID > latest.ID {
				latest = l
			}
		}
	}
	if latest == nil {
		return nil, imports.ErrLogNotFound
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeLogs) List(_ context.Context, limit, offset int) ([]imports.Log, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []imports.Log{}
	for id := f.nextID; id > 0; id-- {
		if l, ok := f.logs[id]; ok {
			out = append(out, *l)
		}
	}
	total := len(out)
	if offset >= total {
		return []imports.Log{}, total, nil
	}
	return out[offset:min(offset+limit, total)], total, nil
}

func (f *fakeLogs) ListErrors(_ context.Context, logID int64) ([]imports.RowError, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []imports.RowError{}
	for _, e := range f.errs {
		if e.LogID == logID {
			out = append(out, e)
		}
	}
	return out, nil
}

// fakeCatalog keeps products, categories and definitions in memory.
type fakeCatalog struct {
	mu          sync.Mutex
	nextID      int64
	products    map[string]*catalog.Product
	productCats map[int64][]int64
	categories  []*catalog.Category
	definitions []*catalog.AttributeDefinition
	values      map[int64]map[int64]string
	appended    []string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		products:    map[string]*catalog.Product{},
		productCats: map[int64][]int64{},
		values:      map[int64]map[int64]string{},
	}
}

func (f *fakeCatalog) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeCatalog) ProductExistsBySKU(_ context.Context, sku string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.products[sku]
	return ok, nil
}

func (f *fakeCatalog) UpsertProductBySKU(_ context.Context, in catalog.ProductInput) (*catalog.Product, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[in.SKU]
	if !ok {
		p = &catalog.Product{ID: f.id(), SKU: in.SKU, IsActive: true}
		f.products[in.SKU] = p
	}
	p.Name = in.Name
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Filters != nil {
		p.Filters = *in.Filters
	}
	cp := *p
	return &cp, !ok, nil
}

func (f *fakeCatalog) AddProductCategory(_ context.Context, productID, categoryID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.productCats[productID] {
		if id == categoryID {
			return nil
		}
	}
	f.productCats[productID] = append(f.productCats[productID], categoryID)
	return nil
}

func (f *fakeCatalog) UpsertAttributeValue(_ context.Context, productID, definitionID int64, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.values[productID] == nil {
		f.values[productID] = map[int64]string{}
	}
	f.values[productID][definitionID] = value
	return nil
}

func (f *fakeCatalog) FindTopLevelCategory(_ context.Context, name string) (*catalog.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.ParentID == nil && strings.EqualFold(c.Name, name) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, catalog.ErrCategoryNotFound
}

func (f *fakeCatalog) FindCategoryByName(ctx context.Context, name string) (*catalog.Category, error) {
	return f.FindTopLevelCategory(ctx, name)
}

func (f *fakeCatalog) CreateCategory(_ context.Context, c *catalog.Category) (*catalog.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	cp.ID = f.id()
	f.categories = append(f.categories, &cp)
	out := cp
	return &out, nil
}

func (f *fakeCatalog) EnsureDefinition(_ context.Context, d *catalog.AttributeDefinition) (*catalog.AttributeDefinition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.definitions {
		if existing.CategoryID == d.CategoryID && existing.Name == d.Name {
			cp := *existing
			cp.Options = append([]string{}, existing.Options...)
			return &cp, nil
		}
	}
	cp := *d
	cp.ID = f.id()
	cp.Options = append([]string{}, d.Options...)
	f.definitions = append(f.definitions, &cp)
	out := cp
	out.Options = append([]string{}, cp.Options...)
	return &out, nil
}

func (f *fakeCatalog) AppendDefinitionOption(_ context.Context, definitionID int64, value string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.definitions {
		if d.ID != definitionID {
			continue
		}
		if d.HasOption(value) {
			return false, nil
		}
		d.Options = append(d.Options, value)
		f.appended = append(f.appended, d.Name+"="+value)
		return true, nil
	}
	return false, catalog.ErrDefinitionNotFound
}

func (f *fakeCatalog) definition(name string) *catalog.AttributeDefinition {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.definitions {
		if d.Name == name {
			return d
		}
	}
	return nil
}

type fakeClients struct {
	users    map[string]*accounts.User
	upserts  []accounts.ClientUpsert
	failWith error
}

func newFakeClients(existing ...string) *fakeClients {
	f := &fakeClients{users: map[string]*accounts.User{}}
	for i, u := range existing {
		f.users[u] = &accounts.User{ID: int64(i + 1), Username: u, Role: accounts.RoleClient}
	}
	return f
}

func (f *fakeClients) UsernameExists(_ context.Context, username string) (bool, error) {
	_, ok := f.users[username]
	return ok, nil
}

func (f *fakeClients) UpsertClient(_ context.Context, in accounts.ClientUpsert) (*accounts.User, bool, error) {
	if f.failWith != nil {
		return nil, false, f.failWith
	}
	f.upserts = append(f.upserts, in)
	if u, ok := f.users[in.Username]; ok {
		return u, false, nil
	}
	u := &accounts.User{ID: int64(len(f.users) + 1), Username: in.Username, Role: accounts.RoleClient}
	f.users[in.Username] = u
	return u, true, nil
}

var errBoom = errors.New("boom")
