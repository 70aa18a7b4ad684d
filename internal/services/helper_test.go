package services

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/docstore"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/internal/repository"
	"github.com/nimasrn/property-marketplace/pkg/pg"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	db            *pg.DB
	users         *repository.UserRepository
	properties    *repository.PropertyRepository
	leads         *repository.LeadRepository
	connections   *repository.ConnectionRepository
	txs           *repository.TransactionRepository
	notifications *repository.NotificationRepository
	emitter       *recordingEmitter

	notifier     *NotificationService
	leadSvc      *LeadService
	txSvc        *TransactionService
	store        *memoryStore
	appointments *AppointmentService
	listings     *PropertyService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), pg.GormConfig(false))
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, gdb.AutoMigrate(repository.Entities()...))

	db := pg.New(gdb, gdb)
	e := &testEnv{
		db:            db,
		users:         repository.NewUserRepository(db),
		properties:    repository.NewPropertyRepository(db),
		leads:         repository.NewLeadRepository(db),
		connections:   repository.NewConnectionRepository(db),
		txs:           repository.NewTransactionRepository(db),
		notifications: repository.NewNotificationRepository(db),
		emitter:       &recordingEmitter{},
		store:         newMemoryStore(),
	}
	e.notifier = NewNotificationService(e.notifications, e.users, e.properties)
	e.leadSvc = NewLeadService(db, e.leads, e.connections, e.txs, e.properties, e.users, e.notifier, e.emitter)
	e.txSvc = NewTransactionService(db, e.txs, e.leads, e.connections, e.properties, e.notifier, e.emitter)
	e.appointments = NewAppointmentService(e.store, e.properties, e.notifier, e.emitter)
	e.listings = NewPropertyService(e.properties)
	return e
}

func (e *testEnv) user(t *testing.T, role model.Role, name string) *model.User {
	t.Helper()
	id := uuid.New()
	u, err := e.users.Create(context.Background(), &model.User{
		ID:    id,
		Name:  name,
		Email: id.String() + "@example.com",
		Role:  role,
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) property(t *testing.T, seller uuid.UUID, agent *uuid.UUID) *model.Property {
	t.Helper()
	p, err := e.properties.Create(context.Background(), &model.Property{
		UserID:  seller,
		AgentID: agent,
		Title:   "Διαμέρισμα στο Κουκάκι",
		Price:   210000,
		Status:  model.PropertyStatusApproved,
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) notificationsFor(t *testing.T, recipient uuid.UUID) []*model.Notification {
	t.Helper()
	items, _, _, err := e.notifications.List(context.Background(), model.NotificationFilter{RecipientID: recipient, Limit: 100})
	require.NoError(t, err)
	return items
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []*model.TransactionEvent
}

func (r *recordingEmitter) Emit(_ context.Context, ev *model.TransactionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingEmitter) types() []model.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

// memoryStore is an in-process AppointmentStore.
type memoryStore struct {
	mu           sync.Mutex
	settings     map[uuid.UUID]*model.VisitSettings
	appointments map[string]*model.Appointment
	seq          int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		settings:     map[uuid.UUID]*model.VisitSettings{},
		appointments: map[string]*model.Appointment{},
	}
}

func (m *memoryStore) GetVisitSettings(_ context.Context, propertyID uuid.UUID) (*model.VisitSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.settings[propertyID]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *memoryStore) UpsertVisitSettings(_ context.Context, v *model.VisitSettings) (*model.VisitSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *v
	cp.UpdatedAt = time.Now()
	m.settings[v.PropertyID] = &cp
	return &cp, nil
}

func (m *memoryStore) CreateAppointment(_ context.Context, a *model.Appointment) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	cp := *a
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now().Add(time.Duration(m.seq) * time.Millisecond)
	cp.UpdatedAt = cp.CreatedAt
	m.appointments[cp.ID] = &cp
	return &cp, nil
}

func (m *memoryStore) GetAppointment(_ context.Context, id string) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memoryStore) UpdateAppointmentStatus(_ context.Context, id string, status model.AppointmentStatus) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (m *memoryStore) ListAppointments(_ context.Context, f model.AppointmentFilter) ([]*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := map[uuid.UUID]bool{}
	for _, id := range f.PropertyIDs {
		wanted[id] = true
	}
	var out []*model.Appointment
	for _, a := range m.appointments {
		if len(wanted) > 0 && !wanted[a.PropertyID] {
			continue
		}
		if f.BuyerID != nil && a.BuyerID != *f.BuyerID {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
