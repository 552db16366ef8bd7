package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"chargehub/internal/models"
	"chargehub/internal/payment"
	"chargehub/internal/repository"
)

type fakeUsers struct {
	mu     sync.Mutex
	users  map[int64]*models.User
	nextID int64
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{users: make(map[int64]*models.User)}
	for _, u := range users {
		f.users[u.ID] = u
		if u.ID > f.nextID {
			f.nextID = u.ID
		}
	}
	return f
}

func (f *fakeUsers) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	user.ID = f.nextID
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUsers) List(ctx context.Context) ([]models.User, error) { return nil, nil }

func (f *fakeUsers) Update(ctx context.Context, user *models.User) error { return nil }

func (f *fakeUsers) SetBlacklist(ctx context.Context, userID int64, blacklisted bool) error {
	return nil
}

type fakeStations struct {
	mu       sync.Mutex
	stations map[int64]*models.Station
	nextID   int64
}

func newFakeStations(stations ...*models.Station) *fakeStations {
	f := &fakeStations{stations: make(map[int64]*models.Station)}
	for _, s := range stations {
		f.stations[s.ID] = s
		if s.ID > f.nextID {
			f.nextID = s.ID
		}
	}
	return f
}

func (f *fakeStations) Create(ctx context.Context, station *models.Station) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	station.ID = f.nextID
	copied := *station
	f.stations[station.ID] = &copied
	return nil
}

func (f *fakeStations) GetByID(ctx context.Context, id int64) (*models.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	station, ok := f.stations[id]
	if !ok {
		return nil, repository.ErrStationNotFound
	}
	copied := *station
	return &copied, nil
}

func (f *fakeStations) ListApproved(ctx context.Context) ([]models.Station, error) { return nil, nil }

func (f *fakeStations) ListByOwner(ctx context.Context, ownerID int64) ([]models.Station, error) {
	return nil, nil
}

func (f *fakeStations) ListAll(ctx context.Context) ([]models.Station, error) { return nil, nil }

func (f *fakeStations) Approve(ctx context.Context, id int64) error { return nil }

// memoryStore emulates the admission repository: InStationTx serializes all
// work for the station behind one mutex, the same guarantee the row lock
// gives in Postgres.
type memoryStore struct {
	mu            sync.Mutex
	sessions      map[int64]*models.Session
	queue         []*models.QueueEntry
	nextSessionID int64
	nextQueueID   int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: make(map[int64]*models.Session)}
}

func (m *memoryStore) InStationTx(ctx context.Context, stationID int64, fn func(tx repository.AdmissionTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(&memoryTx{store: m})
}

func (m *memoryStore) CountActive(ctx context.Context, stationID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countActiveLocked(stationID), nil
}

func (m *memoryStore) QueueEntry(ctx context.Context, stationID, userID int64) (*models.QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queueEntryLocked(stationID, userID)
}

func (m *memoryStore) QueuePosition(ctx context.Context, entry *models.QueueEntry) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queuePositionLocked(entry), nil
}

func (m *memoryStore) WaitingCount(ctx context.Context, stationID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, e := range m.queue {
		if e.StationID == stationID {
			count++
		}
	}
	return count, nil
}

func (m *memoryStore) countActiveLocked(stationID int64) int {
	count := 0
	for _, s := range m.sessions {
		if s.StationID == stationID && s.Status == models.SessionStatusActive {
			count++
		}
	}
	return count
}

func (m *memoryStore) queueEntryLocked(stationID, userID int64) (*models.QueueEntry, error) {
	for _, e := range m.queue {
		if e.StationID == stationID && e.UserID == userID {
			copied := *e
			return &copied, nil
		}
	}
	return nil, repository.ErrQueueEntryNotFound
}

func (m *memoryStore) queuePositionLocked(entry *models.QueueEntry) int {
	position := 0
	for _, e := range m.queue {
		if e.StationID != entry.StationID {
			continue
		}
		if e.JoinedAt.Before(entry.JoinedAt) || (e.JoinedAt.Equal(entry.JoinedAt) && e.ID <= entry.ID) {
			position++
		}
	}
	return position
}

// GetByID satisfies SessionStore so the fixture can share one store.
func (m *memoryStore) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	session := m.sessionByID(id)
	if session == nil {
		return nil, repository.ErrSessionNotFound
	}
	return session, nil
}

func (m *memoryStore) HistoryForUser(ctx context.Context, userID int64, limit int) ([]models.Session, error) {
	return nil, nil
}

func (m *memoryStore) ActiveForOwner(ctx context.Context, ownerID int64) ([]models.ActiveSessionView, error) {
	return nil, nil
}

func (m *memoryStore) ActiveAll(ctx context.Context) ([]models.ActiveSessionView, error) {
	return nil, nil
}

func (m *memoryStore) sessionByID(id int64) *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil
	}
	copied := *session
	return &copied
}

// memoryTx runs with the store mutex already held.
type memoryTx struct {
	store *memoryStore
}

func (t *memoryTx) CountActive(ctx context.Context, stationID int64) (int, error) {
	return t.store.countActiveLocked(stationID), nil
}

func (t *memoryTx) InsertSession(ctx context.Context, session *models.Session) error {
	t.store.nextSessionID++
	session.ID = t.store.nextSessionID
	copied := *session
	t.store.sessions[session.ID] = &copied
	return nil
}

func (t *memoryTx) QueueEntry(ctx context.Context, stationID, userID int64) (*models.QueueEntry, error) {
	return t.store.queueEntryLocked(stationID, userID)
}

func (t *memoryTx) InsertQueueEntry(ctx context.Context, entry *models.QueueEntry) error {
	t.store.nextQueueID++
	entry.ID = t.store.nextQueueID
	copied := *entry
	t.store.queue = append(t.store.queue, &copied)
	return nil
}

func (t *memoryTx) QueuePosition(ctx context.Context, entry *models.QueueEntry) (int, error) {
	return t.store.queuePositionLocked(entry), nil
}

func (t *memoryTx) FinishSession(ctx context.Context, session *models.Session) error {
	stored, ok := t.store.sessions[session.ID]
	if !ok || stored.Status != models.SessionStatusActive {
		return repository.ErrSessionNotActive
	}
	copied := *session
	t.store.sessions[session.ID] = &copied
	return nil
}

func (t *memoryTx) PopQueueHead(ctx context.Context, stationID int64) (*models.QueueEntry, error) {
	head := -1
	for i, e := range t.store.queue {
		if e.StationID != stationID {
			continue
		}
		if head == -1 {
			head = i
			continue
		}
		h := t.store.queue[head]
		if e.JoinedAt.Before(h.JoinedAt) || (e.JoinedAt.Equal(h.JoinedAt) && e.ID < h.ID) {
			head = i
		}
	}
	if head == -1 {
		return nil, nil
	}
	popped := *t.store.queue[head]
	t.store.queue = append(t.store.queue[:head], t.store.queue[head+1:]...)
	return &popped, nil
}

type fakeCache struct {
	mu      sync.Mutex
	saved   []int64
	deleted []int64
}

func (f *fakeCache) Save(ctx context.Context, session *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, session.ID)
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, sessionID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, sessionID)
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	states []StationState
}

func (f *fakeNotifier) PublishStationState(state StationState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, state)
}

func (f *fakeNotifier) last() (StationState, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.states) == 0 {
		return StationState{}, false
	}
	return f.states[len(f.states)-1], true
}

type admissionFixture struct {
	svc      *AdmissionService
	store    *memoryStore
	cache    *fakeCache
	notifier *fakeNotifier
	station  *models.Station
}

func newAdmissionFixture(t *testing.T, chargers int, users ...*models.User) *admissionFixture {
	t.Helper()

	station := &models.Station{
		ID:          1,
		Name:        "Riverside Hub",
		Chargers:    chargers,
		PricePerKWh: 5,
		GreenScore:  8,
		OwnerID:     100,
		Approved:    true,
	}
	store := newMemoryStore()
	cache := &fakeCache{}
	notifier := &fakeNotifier{}

	svc := NewAdmissionService(
		newFakeUsers(users...),
		newFakeStations(station),
		store,
		store,
		payment.NewSimulatedProcessor(),
		cache,
		notifier,
		zap.NewNop(),
	)
	return &admissionFixture{svc: svc, store: store, cache: cache, notifier: notifier, station: station}
}

func testUser(id int64) *models.User {
	return &models.User{ID: id, Name: "user", Role: models.RoleUser}
}

func TestRequestAdmissionAdmitsWhenChargerFree(t *testing.T) {
	fx := newAdmissionFixture(t, 2, testUser(10))

	result, err := fx.svc.RequestAdmission(context.Background(), 10, 1, 12)
	if err != nil {
		t.Fatalf("RequestAdmission: %v", err)
	}
	if !result.Admitted {
		t.Fatalf("expected admission, got position %d", result.Position)
	}
	if result.Session.Amount != 60 {
		t.Fatalf("expected amount 60, got %v", result.Session.Amount)
	}
	if result.Session.Status != models.SessionStatusActive {
		t.Fatalf("expected active status, got %q", result.Session.Status)
	}
	if result.Session.PaymentToken == "" {
		t.Fatal("expected payment token to be set")
	}

	fx.cache.mu.Lock()
	saved := len(fx.cache.saved)
	fx.cache.mu.Unlock()
	if saved != 1 {
		t.Fatalf("expected 1 cached session, got %d", saved)
	}

	state, ok := fx.notifier.last()
	if !ok {
		t.Fatal("expected a station state snapshot")
	}
	if state.Active != 1 || state.Capacity != 2 || state.Waiting != 0 {
		t.Fatalf("unexpected snapshot: %+v", state)
	}
}

func TestRequestAdmissionQueuesWhenFull(t *testing.T) {
	fx := newAdmissionFixture(t, 1, testUser(10), testUser(11), testUser(12))
	ctx := context.Background()

	if _, err := fx.svc.RequestAdmission(ctx, 10, 1, 5); err != nil {
		t.Fatalf("seed admission: %v", err)
	}

	second, err := fx.svc.RequestAdmission(ctx, 11, 1, 5)
	if err != nil {
		t.Fatalf("RequestAdmission: %v", err)
	}
	if second.Admitted || second.Position != 1 {
		t.Fatalf("expected first queue position, got %+v", second)
	}

	third, err := fx.svc.RequestAdmission(ctx, 12, 1, 5)
	if err != nil {
		t.Fatalf("RequestAdmission: %v", err)
	}
	if third.Admitted || third.Position != 2 {
		t.Fatalf("expected second queue position, got %+v", third)
	}
}

func TestRequestAdmissionQueueJoinIsIdempotent(t *testing.T) {
	fx := newAdmissionFixture(t, 1, testUser(10), testUser(11))
	ctx := context.Background()

	if _, err := fx.svc.RequestAdmission(ctx, 10, 1, 5); err != nil {
		t.Fatalf("seed admission: %v", err)
	}
	first, err := fx.svc.RequestAdmission(ctx, 11, 1, 5)
	if err != nil {
		t.Fatalf("first join: %v", err)
	}
	repeat, err := fx.svc.RequestAdmission(ctx, 11, 1, 5)
	if err != nil {
		t.Fatalf("repeat join: %v", err)
	}
	if repeat.Position != first.Position {
		t.Fatalf("expected stable position %d, got %d", first.Position, repeat.Position)
	}

	waiting, err := fx.store.WaitingCount(ctx, 1)
	if err != nil {
		t.Fatalf("WaitingCount: %v", err)
	}
	if waiting != 1 {
		t.Fatalf("expected a single queue entry, got %d", waiting)
	}
}

func TestRequestAdmissionRejectsBlacklistedUser(t *testing.T) {
	banned := testUser(10)
	banned.Blacklisted = true
	fx := newAdmissionFixture(t, 2, banned)

	_, err := fx.svc.RequestAdmission(context.Background(), 10, 1, 5)
	if !errors.Is(err, ErrUserBlacklisted) {
		t.Fatalf("expected ErrUserBlacklisted, got %v", err)
	}
}

func TestRequestAdmissionUnknownStation(t *testing.T) {
	fx := newAdmissionFixture(t, 2, testUser(10))

	_, err := fx.svc.RequestAdmission(context.Background(), 10, 99, 5)
	if !errors.Is(err, repository.ErrStationNotFound) {
		t.Fatalf("expected ErrStationNotFound, got %v", err)
	}
}

func TestCapacityInvariantUnderConcurrency(t *testing.T) {
	const requesters = 10
	const chargers = 2

	users := make([]*models.User, 0, requesters)
	for i := int64(1); i <= requesters; i++ {
		users = append(users, testUser(i))
	}
	fx := newAdmissionFixture(t, chargers, users...)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]*AdmissionResult, requesters)
	errs := make([]error, requesters)
	for i := 0; i < requesters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = fx.svc.RequestAdmission(ctx, int64(i+1), 1, 5)
		}(i)
	}
	wg.Wait()

	admitted := 0
	positions := make([]int, 0, requesters)
	for i := 0; i < requesters; i++ {
		if errs[i] != nil {
			t.Fatalf("request %d: %v", i, errs[i])
		}
		if results[i].Admitted {
			admitted++
		} else {
			positions = append(positions, results[i].Position)
		}
	}
	if admitted != chargers {
		t.Fatalf("expected exactly %d admitted, got %d", chargers, admitted)
	}

	active, err := fx.store.CountActive(ctx, 1)
	if err != nil {
		t.Fatalf("CountActive: %v", err)
	}
	if active != chargers {
		t.Fatalf("expected %d active sessions, got %d", chargers, active)
	}

	// Queued requesters must have received distinct positions 1..N.
	sort.Ints(positions)
	for i, p := range positions {
		if p != i+1 {
			t.Fatalf("expected contiguous positions, got %v", positions)
		}
	}
}

func TestQueryPosition(t *testing.T) {
	fx := newAdmissionFixture(t, 1, testUser(10), testUser(11))
	ctx := context.Background()

	if _, err := fx.svc.RequestAdmission(ctx, 10, 1, 5); err != nil {
		t.Fatalf("seed admission: %v", err)
	}
	if _, err := fx.svc.RequestAdmission(ctx, 11, 1, 5); err != nil {
		t.Fatalf("seed queue: %v", err)
	}

	status, err := fx.svc.QueryPosition(ctx, 11, 1)
	if err != nil {
		t.Fatalf("QueryPosition: %v", err)
	}
	if status.Position != 1 || status.Active != 1 || status.Capacity != 1 {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.CanProceed {
		t.Fatal("expected CanProceed false while station is full")
	}

	_, err = fx.svc.QueryPosition(ctx, 10, 1)
	if !errors.Is(err, ErrNotInQueue) {
		t.Fatalf("expected ErrNotInQueue, got %v", err)
	}
}

func TestQueryPositionCanProceedWhenSlotFrees(t *testing.T) {
	fx := newAdmissionFixture(t, 1, testUser(10), testUser(11))
	ctx := context.Background()

	admitted, err := fx.svc.RequestAdmission(ctx, 10, 1, 5)
	if err != nil {
		t.Fatalf("seed admission: %v", err)
	}
	if _, err := fx.svc.RequestAdmission(ctx, 11, 1, 5); err != nil {
		t.Fatalf("seed queue: %v", err)
	}

	actor := Actor{UserID: 10, Role: models.RoleUser}
	if _, err := fx.svc.EndSession(ctx, admitted.Session.ID, actor, models.SessionStatusCompleted); err != nil {
		t.Fatalf("EndSession: %v", err)
	}

	// The queue head was popped on exit, so 11 is no longer queued.
	_, err = fx.svc.QueryPosition(ctx, 11, 1)
	if !errors.Is(err, ErrNotInQueue) {
		t.Fatalf("expected ErrNotInQueue after pop, got %v", err)
	}
}

func TestEndSessionCompletesAndPopsQueue(t *testing.T) {
	fx := newAdmissionFixture(t, 1, testUser(10), testUser(11))
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	fx.svc.now = func() time.Time { return started }

	admitted, err := fx.svc.RequestAdmission(ctx, 10, 1, 10)
	if err != nil {
		t.Fatalf("seed admission: %v", err)
	}
	if _, err := fx.svc.RequestAdmission(ctx, 11, 1, 5); err != nil {
		t.Fatalf("seed queue: %v", err)
	}

	fx.svc.now = func() time.Time { return started.Add(42*time.Minute + 30*time.Second) }

	actor := Actor{UserID: 10, Role: models.RoleUser}
	finished, err := fx.svc.EndSession(ctx, admitted.Session.ID, actor, models.SessionStatusCompleted)
	if err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	if finished.Status != models.SessionStatusCompleted {
		t.Fatalf("expected completed, got %q", finished.Status)
	}
	if finished.DurationMinutes == nil || *finished.DurationMinutes != 42 {
		t.Fatalf("expected 42 minute duration, got %v", finished.DurationMinutes)
	}
	if finished.CompletedAt == nil {
		t.Fatal("expected completed_at to be set")
	}

	waiting, err := fx.store.WaitingCount(ctx, 1)
	if err != nil {
		t.Fatalf("WaitingCount: %v", err)
	}
	if waiting != 0 {
		t.Fatalf("expected queue to be popped, got %d waiting", waiting)
	}

	fx.cache.mu.Lock()
	deleted := len(fx.cache.deleted)
	fx.cache.mu.Unlock()
	if deleted != 1 {
		t.Fatalf("expected cache delete, got %d", deleted)
	}
}

func TestEndSessionBackfillsAmount(t *testing.T) {
	fx := newAdmissionFixture(t, 1, testUser(10))
	ctx := context.Background()

	// Session persisted with a zero amount, e.g. units were unknown upfront.
	fx.store.mu.Lock()
	fx.store.nextSessionID++
	fx.store.sessions[fx.store.nextSessionID] = &models.Session{
		ID:        fx.store.nextSessionID,
		UserID:    10,
		StationID: 1,
		Units:     10,
		Amount:    0,
		Status:    models.SessionStatusActive,
		StartedAt: time.Now().UTC(),
	}
	sessionID := fx.store.nextSessionID
	fx.store.mu.Unlock()

	actor := Actor{UserID: 10, Role: models.RoleUser}
	finished, err := fx.svc.EndSession(ctx, sessionID, actor, models.SessionStatusCompleted)
	if err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	if finished.Amount != 50 {
		t.Fatalf("expected backfilled amount 50, got %v", finished.Amount)
	}
}

func TestEndSessionReplayIsRejected(t *testing.T) {
	fx := newAdmissionFixture(t, 1, testUser(10), testUser(11), testUser(12))
	ctx := context.Background()

	admitted, err := fx.svc.RequestAdmission(ctx, 10, 1, 5)
	if err != nil {
		t.Fatalf("seed admission: %v", err)
	}
	if _, err := fx.svc.RequestAdmission(ctx, 11, 1, 5); err != nil {
		t.Fatalf("seed queue: %v", err)
	}
	if _, err := fx.svc.RequestAdmission(ctx, 12, 1, 5); err != nil {
		t.Fatalf("seed queue: %v", err)
	}

	actor := Actor{UserID: 10, Role: models.RoleUser}
	if _, err := fx.svc.EndSession(ctx, admitted.Session.ID, actor, models.SessionStatusCompleted); err != nil {
		t.Fatalf("EndSession: %v", err)
	}

	_, err = fx.svc.EndSession(ctx, admitted.Session.ID, actor, models.SessionStatusCompleted)
	if !errors.Is(err, repository.ErrSessionNotActive) {
		t.Fatalf("expected ErrSessionNotActive on replay, got %v", err)
	}

	// Replay must not advance the queue a second time.
	waiting, err := fx.store.WaitingCount(ctx, 1)
	if err != nil {
		t.Fatalf("WaitingCount: %v", err)
	}
	if waiting != 1 {
		t.Fatalf("expected one remaining queue entry, got %d", waiting)
	}
}

func TestEndSessionPermissions(t *testing.T) {
	fx := newAdmissionFixture(t, 2, testUser(10), testUser(11))
	ctx := context.Background()

	admitted, err := fx.svc.RequestAdmission(ctx, 10, 1, 5)
	if err != nil {
		t.Fatalf("seed admission: %v", err)
	}
	sessionID := admitted.Session.ID

	stranger := Actor{UserID: 11, Role: models.RoleUser}
	if _, err := fx.svc.EndSession(ctx, sessionID, stranger, models.SessionStatusCompleted); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for stranger, got %v", err)
	}

	// The session's own user may not cancel, only complete.
	self := Actor{UserID: 10, Role: models.RoleUser}
	if _, err := fx.svc.EndSession(ctx, sessionID, self, models.SessionStatusCancelled); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for self-cancel, got %v", err)
	}

	owner := Actor{UserID: 100, Role: models.RoleOwner}
	finished, err := fx.svc.EndSession(ctx, sessionID, owner, models.SessionStatusCancelled)
	if err != nil {
		t.Fatalf("owner cancel: %v", err)
	}
	if finished.Status != models.SessionStatusCancelled {
		t.Fatalf("expected cancelled, got %q", finished.Status)
	}
}

func TestEndSessionUnknownOutcome(t *testing.T) {
	fx := newAdmissionFixture(t, 1, testUser(10))

	actor := Actor{UserID: 10, Role: models.RoleUser}
	if _, err := fx.svc.EndSession(context.Background(), 1, actor, "paused"); err == nil {
		t.Fatal("expected error for unknown outcome")
	}
}
