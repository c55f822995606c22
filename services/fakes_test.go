package services

import (
	"context"
	"sync"

	"github.com/Manish-456/eatsy-backend/models"
	awspkg "github.com/Manish-456/eatsy-backend/pkg/aws"
	"github.com/Manish-456/eatsy-backend/repository"
	"github.com/google/uuid"
)

// ---- users ----

type fakeUserRepo struct {
	users     map[string]*models.User
	createErr error
}

func newFakeUserRepo(users ...models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*models.User{}}
	for i := range users {
		u := users[i]
		r.users[u.ID] = &u
	}
	return r
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) FindByAuth0ID(_ context.Context, auth0ID string) (*models.User, error) {
	for _, u := range r.users {
		if u.Auth0ID == auth0ID {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) FindByIDs(_ context.Context, ids []string) ([]models.User, error) {
	out := []models.User{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, id string, req models.UpdateUserRequest) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.Name, u.AddressLine1, u.City, u.Country = req.Name, req.AddressLine1, req.City, req.Country
	return u, nil
}

// ---- restaurants ----

type fakeRestaurantRepo struct {
	restaurants map[string]*models.Restaurant
	createErr   error
	updateErr   error
	deleted     []string
	cityCount   int64
	searchData  []models.Restaurant
	searchTotal int64
	lastSearch  models.SearchParams
}

func newFakeRestaurantRepo(rs ...models.Restaurant) *fakeRestaurantRepo {
	r := &fakeRestaurantRepo{restaurants: map[string]*models.Restaurant{}}
	for i := range rs {
		rest := rs[i]
		r.restaurants[rest.ID] = &rest
	}
	return r
}

func (r *fakeRestaurantRepo) FindByID(_ context.Context, id string) (*models.Restaurant, error) {
	if rest, ok := r.restaurants[id]; ok {
		cp := *rest
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeRestaurantRepo) FindByUserID(_ context.Context, userID string) (*models.Restaurant, error) {
	for _, rest := range r.restaurants {
		if rest.UserID == userID {
			cp := *rest
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeRestaurantRepo) FindByIDs(_ context.Context, ids []string) ([]models.Restaurant, error) {
	out := []models.Restaurant{}
	for _, id := range ids {
		if rest, ok := r.restaurants[id]; ok {
			out = append(out, *rest)
		}
	}
	return out, nil
}

func (r *fakeRestaurantRepo) Create(_ context.Context, rest *models.Restaurant) error {
	if r.createErr != nil {
		return r.createErr
	}
	cp := *rest
	r.restaurants[rest.ID] = &cp
	return nil
}

func (r *fakeRestaurantRepo) Update(_ context.Context, rest *models.Restaurant) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	cp := *rest
	r.restaurants[rest.ID] = &cp
	return nil
}

func (r *fakeRestaurantRepo) ClearImage(_ context.Context, id string) error {
	rest, ok := r.restaurants[id]
	if !ok {
		return repository.ErrNotFound
	}
	rest.ImageURL, rest.PublicID = "", ""
	return nil
}

func (r *fakeRestaurantRepo) Delete(_ context.Context, id string) error {
	r.deleted = append(r.deleted, id)
	delete(r.restaurants, id)
	return nil
}

func (r *fakeRestaurantRepo) CountByCity(context.Context, string) (int64, error) {
	return r.cityCount, nil
}

func (r *fakeRestaurantRepo) Search(_ context.Context, p models.SearchParams) ([]models.Restaurant, int64, error) {
	r.lastSearch = p
	return r.searchData, r.searchTotal, nil
}

// ---- menu items ----

type fakeMenuRepo struct {
	items      map[string]models.MenuItem
	insertErr  error
	deletedIDs []string
}

func newFakeMenuRepo(items ...models.MenuItem) *fakeMenuRepo {
	r := &fakeMenuRepo{items: map[string]models.MenuItem{}}
	for _, it := range items {
		r.items[it.ID] = it
	}
	return r
}

func (r *fakeMenuRepo) FindByRestaurantID(_ context.Context, restaurantID string) ([]models.MenuItem, error) {
	out := []models.MenuItem{}
	for _, it := range r.items {
		if it.RestaurantID == restaurantID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *fakeMenuRepo) FindOne(_ context.Context, id, restaurantID string) (*models.MenuItem, error) {
	it, ok := r.items[id]
	if !ok || it.RestaurantID != restaurantID {
		return nil, repository.ErrNotFound
	}
	return &it, nil
}

func (r *fakeMenuRepo) InsertMany(_ context.Context, items []models.MenuItem) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	for _, it := range items {
		r.items[it.ID] = it
	}
	return nil
}

func (r *fakeMenuRepo) Update(_ context.Context, item models.MenuItem) error {
	existing, ok := r.items[item.ID]
	if !ok || existing.RestaurantID != item.RestaurantID {
		return repository.ErrNotFound
	}
	r.items[item.ID] = item
	return nil
}

func (r *fakeMenuRepo) Delete(_ context.Context, id, restaurantID string) error {
	it, ok := r.items[id]
	if !ok || it.RestaurantID != restaurantID {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeMenuRepo) DeleteByIDs(_ context.Context, ids []string) error {
	r.deletedIDs = append(r.deletedIDs, ids...)
	for _, id := range ids {
		delete(r.items, id)
	}
	return nil
}

// ---- orders ----

type fakeOrderRepo struct {
	mu            sync.Mutex
	orders        map[uuid.UUID]*models.Order
	createErr     error
	menuInUse     map[string]bool
	markPaidCalls int
	// moveBeforeWrite simulates a concurrent writer changing the status
	// between the read and the conditional write.
	moveBeforeWrite models.OrderStatus
}

func newFakeOrderRepo(orders ...models.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{orders: map[uuid.UUID]*models.Order{}, menuInUse: map[string]bool{}}
	for i := range orders {
		o := orders[i]
		r.orders[o.ID] = &o
	}
	return r
}

func (r *fakeOrderRepo) Create(_ context.Context, o *models.Order) error {
	if r.createErr != nil {
		return r.createErr
	}
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) FindByUserID(_ context.Context, userID string) ([]models.Order, error) {
	out := []models.Order{}
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) FindByRestaurantID(_ context.Context, restaurantID string) ([]models.Order, error) {
	out := []models.Order{}
	for _, o := range r.orders {
		if o.RestaurantID == restaurantID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) MarkPaid(_ context.Context, id uuid.UUID, amount int64) (*models.Order, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markPaidCalls++
	o, ok := r.orders[id]
	if !ok {
		return nil, false, repository.ErrNotFound
	}
	if o.Status != models.StatusPlaced {
		cp := *o
		return &cp, false, nil
	}
	o.Status = models.StatusPaid
	o.TotalAmount = &amount
	cp := *o
	return &cp, true, nil
}

func (r *fakeOrderRepo) applyRace(id uuid.UUID) {
	if r.moveBeforeWrite != "" {
		r.orders[id].Status = r.moveBeforeWrite
	}
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error) {
	o, ok := r.orders[id]
	if !ok {
		return false, nil
	}
	r.applyRace(id)
	if o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (r *fakeOrderRepo) DeleteIfStatus(_ context.Context, id uuid.UUID, status models.OrderStatus) (bool, error) {
	o, ok := r.orders[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	r.applyRace(id)
	if o.Status != status {
		return false, nil
	}
	delete(r.orders, id)
	return true, nil
}

func (r *fakeOrderRepo) ExistsWithMenuItem(_ context.Context, menuItemID string) (bool, error) {
	return r.menuInUse[menuItemID], nil
}

// ---- gateway ----

type fakeGateway struct {
	inputs     []CheckoutSessionInput
	createErr  error
	sessionURL string
	expired    []string
	event      *WebhookEvent
	parseErr   error
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, in CheckoutSessionInput) (*CheckoutSession, error) {
	g.inputs = append(g.inputs, in)
	if g.createErr != nil {
		return nil, g.createErr
	}
	return &CheckoutSession{ID: "cs_test_1", URL: g.sessionURL}, nil
}

func (g *fakeGateway) ExpireCheckoutSession(_ context.Context, id string) error {
	g.expired = append(g.expired, id)
	return nil
}

func (g *fakeGateway) ParseWebhook([]byte, string) (*WebhookEvent, error) {
	return g.event, g.parseErr
}

// ---- media ----

type fakeMedia struct {
	uploads   int
	deleted   []string
	uploadErr error
}

func (m *fakeMedia) Upload(_ context.Context, data []byte, contentType string) (*awspkg.UploadedImage, error) {
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	m.uploads++
	return &awspkg.UploadedImage{PublicID: "restaurants/new.png", URL: "https://cdn.example.com/restaurants/new.png"}, nil
}

func (m *fakeMedia) Delete(_ context.Context, publicID string) error {
	m.deleted = append(m.deleted, publicID)
	return nil
}

// ---- side effects ----

type fakePublisher struct {
	mu     sync.Mutex
	events []models.OrderEvent
}

func (p *fakePublisher) Publish(_ context.Context, e models.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func (m *fakeMetrics) RecordCount(_ context.Context, name string, _ map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[string]int{}
	}
	m.counts[name]++
	return nil
}

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }
