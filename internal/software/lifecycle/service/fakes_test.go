package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"ride-lifecycle/internal/domain/ride"
	"ride-lifecycle/internal/general/logger"
	"ride-lifecycle/internal/ports"

	"github.com/stretchr/testify/require"
)

// ----- in-memory unit of work -----

// memUow serializes callers the way the row lock does in Postgres.
type memUow struct {
	mu sync.Mutex
}

func (u *memUow) WithinTx(_ context.Context, fn func(ctx context.Context) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return fn(context.Background())
}

// ----- ride repository -----

type memRideRepo struct {
	mu    sync.Mutex
	rides map[string]*ride.Ride
	// forceGuardMiss makes the next UpdateTransition lose the version guard.
	forceGuardMiss bool
}

func newMemRideRepo() *memRideRepo {
	return &memRideRepo{rides: make(map[string]*ride.Ride)}
}

func cloneRide(r *ride.Ride) *ride.Ride {
	cp := *r
	cp.Tasks = make([]ride.ErrandTask, len(r.Tasks))
	copy(cp.Tasks, r.Tasks)
	for i := range cp.Tasks {
		cp.Tasks[i].History = append([]ride.TaskHistoryEntry(nil), r.Tasks[i].History...)
	}
	return &cp
}

func (m *memRideRepo) seed(r *ride.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[r.ID] = cloneRide(r)
}

func (m *memRideRepo) get(id string) *ride.Ride {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rides[id]; ok {
		return cloneRide(r)
	}
	return nil
}

func (m *memRideRepo) CreateRide(_ context.Context, r *ride.Ride) error {
	m.seed(r)
	return nil
}

func (m *memRideRepo) GetByID(_ context.Context, id string) (*ride.Ride, error) {
	if r := m.get(id); r != nil {
		return r, nil
	}
	return nil, ride.ErrNotFound
}

func (m *memRideRepo) GetForUpdate(ctx context.Context, id string) (*ride.Ride, error) {
	return m.GetByID(ctx, id)
}

func (m *memRideRepo) UpdateTransition(_ context.Context, r *ride.Ride, expectedVersion int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := r.CheckInvariants(); err != nil {
		return false, err
	}

	stored, ok := m.rides[r.ID]
	if !ok {
		return false, ride.ErrNotFound
	}
	if m.forceGuardMiss {
		m.forceGuardMiss = false
		return false, nil
	}
	if stored.Version != expectedVersion {
		return false, nil
	}

	next := cloneRide(r)
	next.Version = expectedVersion + 1
	m.rides[r.ID] = next
	r.Version = next.Version
	return true, nil
}

func (m *memRideRepo) UpdatePaymentStatus(_ context.Context, rideID string, status ride.PaymentStatus, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[rideID]
	if !ok {
		return ride.ErrNotFound
	}
	r.PaymentStatus = status
	return nil
}

// ----- event repository -----

type memEventRepo struct {
	mu     sync.Mutex
	events []*ride.Event
}

func (m *memEventRepo) Append(_ context.Context, e *ride.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memEventRepo) ListByRide(_ context.Context, rideID string, _ int) ([]*ride.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*ride.Event
	for _, e := range m.events {
		if e.RideID == rideID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memEventRepo) types() []ride.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ride.EventType, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

// ----- receipts -----

type memReceipts struct {
	mu       sync.Mutex
	receipts map[string]ports.TransitionReceipt
}

func newMemReceipts() *memReceipts {
	return &memReceipts{receipts: make(map[string]ports.TransitionReceipt)}
}

func (m *memReceipts) Get(_ context.Context, key string) (*ports.TransitionReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.receipts[key]; ok {
		cp := r
		return &cp, nil
	}
	return nil, nil
}

func (m *memReceipts) Put(_ context.Context, receipt *ports.TransitionReceipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipts[receipt.Key] = *receipt
	return nil
}

func (m *memReceipts) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.receipts)
}

// ----- side-effect collaborators -----

type memAvailability struct {
	mu       sync.Mutex
	acquired []string
	released []string
	failErr  error
}

func (m *memAvailability) Acquire(_ context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.acquired = append(m.acquired, driverID)
	return nil
}

func (m *memAvailability) Release(_ context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.released = append(m.released, driverID)
	return nil
}

func (m *memAvailability) acquiredList() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acquired...)
}

func (m *memAvailability) releasedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.released)
}

func (m *memAvailability) releasedList() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.released...)
}

type debitRecord struct {
	passengerID string
	rideID      string
	amount      int64
}

type memPayments struct {
	mu      sync.Mutex
	debits  []debitRecord
	failErr error
}

func (m *memPayments) Debit(_ context.Context, passengerID, rideID string, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.debits = append(m.debits, debitRecord{passengerID, rideID, amount})
	return nil
}

func (m *memPayments) debitCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.debits)
}

func (m *memPayments) debitList() []debitRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]debitRecord(nil), m.debits...)
}

type memNotifier struct {
	mu      sync.Mutex
	sent    []ports.Notification
	failErr error
}

func (m *memNotifier) Notify(_ context.Context, n ports.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.sent = append(m.sent, n)
	return nil
}

func (m *memNotifier) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *memNotifier) sentList() []ports.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.Notification(nil), m.sent...)
}

type publishedMsg struct {
	exchange   string
	routingKey string
	body       []byte
}

type memPublisher struct {
	mu        sync.Mutex
	published []publishedMsg
}

func (m *memPublisher) Publish(exchange, routingKey string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, publishedMsg{exchange, routingKey, body})
	return nil
}

func (m *memPublisher) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.published))
	for i, p := range m.published {
		out[i] = p.routingKey
	}
	return out
}

// ----- fixture -----

type fixture struct {
	svc          *lifecycleService
	rides        *memRideRepo
	events       *memEventRepo
	receipts     *memReceipts
	availability *memAvailability
	payments     *memPayments
	notifier     *memNotifier
	publisher    *memPublisher
}

func newFixture() *fixture {
	f := &fixture{
		rides:        newMemRideRepo(),
		events:       &memEventRepo{},
		receipts:     newMemReceipts(),
		availability: &memAvailability{},
		payments:     &memPayments{},
		notifier:     &memNotifier{},
		publisher:    &memPublisher{},
	}
	f.svc = &lifecycleService{
		logger:       logger.NewWithWriter("lifecycle-test", io.Discard),
		uow:          &memUow{},
		rideRepo:     f.rides,
		eventRepo:    f.events,
		receipts:     f.receipts,
		validator:    ride.NewValidator(ride.DefaultPolicy),
		availability: f.availability,
		payments:     f.payments,
		notifier:     f.notifier,
		pub:          f.publisher,
	}
	return f
}

// seedRideAt creates a ride already sitting at the given phase.
func seedRideAt(t *testing.T, f *fixture, phase ride.Phase, serviceType ride.ServiceType, payment ride.PaymentMethod, cost int64, taskTitles []string) *ride.Ride {
	t.Helper()

	r, err := ride.NewRide("p1", serviceType, ride.TimingInstant, payment, cost, taskTitles)
	require.NoError(t, err)

	if phase.State != ride.StatePending && phase.State != ride.StateCancelled {
		d := "d1"
		r.DriverID = &d
	}
	r.State = phase.State
	r.SubState = phase.Sub
	r.LegacyStatus = ride.ProjectLegacyStatus(phase.State, phase.Sub)
	require.NoError(t, r.CheckInvariants())

	f.rides.seed(r)
	return r
}

func taxiAt(t *testing.T, f *fixture, phase ride.Phase) *ride.Ride {
	t.Helper()
	return seedRideAt(t, f, phase, ride.ServiceTaxi, ride.PayCash, 0, nil)
}
