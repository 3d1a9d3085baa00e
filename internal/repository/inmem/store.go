// Package inmem keeps every store in process memory behind one mutex.
// Holding the mutex for the whole check-and-write mirrors the row locks
// the MySQL repositories take, which makes it usable in concurrency
// tests.
package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/taxischool/internal/booking"
	"github.com/iliyamo/taxischool/internal/model"
	"github.com/iliyamo/taxischool/internal/service"
)

// Store implements all service store interfaces.
type Store struct {
	mu sync.Mutex

	seq          uint64
	users        map[uint64]model.User
	formations   map[uint64]model.Formation
	sessions     map[uint64]model.Session
	reservations map[uint64]model.Reservation
	vehicles     map[uint64]model.Vehicle
	rentals      map[uint64]model.VehicleRental
	temps        map[string]model.TempDocument
	documents    map[uint64]model.Document

	now func() time.Time
}

var (
	_ service.UserStore        = (*Store)(nil)
	_ service.CatalogStore     = (*Store)(nil)
	_ service.ReservationStore = (*Store)(nil)
	_ service.VehicleStore     = (*Store)(nil)
	_ service.RentalStore      = (*Store)(nil)
	_ service.DocumentStore    = (*Store)(nil)
)

// New returns an empty store with ids starting at 1 and the clock set
// to the current UTC time.
func New() *Store {
	return &Store{
		users:        map[uint64]model.User{},
		formations:   map[uint64]model.Formation{},
		sessions:     map[uint64]model.Session{},
		reservations: map[uint64]model.Reservation{},
		vehicles:     map[uint64]model.Vehicle{},
		rentals:      map[uint64]model.VehicleRental{},
		temps:        map[string]model.TempDocument{},
		documents:    map[uint64]model.Document{},
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source used for timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) nextID() uint64 {
	s.seq++
	return s.seq
}

// Users

func (s *Store) GetUser(_ context.Context, id uint64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, booking.ErrNotFound
}

func (s *Store) UpsertUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, existing := range s.users {
		if existing.Email != u.Email {
			continue
		}
		existing.FirstName = fill(existing.FirstName, u.FirstName)
		existing.LastName = fill(existing.LastName, u.LastName)
		existing.Phone = fill(existing.Phone, u.Phone)
		existing.UpdatedAt = now
		s.users[id] = existing
		*u = existing
		return nil
	}
	u.ID = s.nextID()
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = *u
	return nil
}

func fill(current, candidate string) string {
	if current == "" {
		return candidate
	}
	return current
}

// Catalog

func (s *Store) ListFormations(_ context.Context, activeOnly bool) ([]model.Formation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Formation{}
	for _, f := range s.formations {
		if activeOnly && !f.IsActive {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetFormation(_ context.Context, id uint64) (*model.Formation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.formations[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return &f, nil
}

func (s *Store) CreateFormation(_ context.Context, f *model.Formation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = s.nextID()
	f.CreatedAt, f.UpdatedAt = s.now(), s.now()
	s.formations[f.ID] = *f
	return nil
}

func (s *Store) SetFormationActive(_ context.Context, id uint64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.formations[id]
	if !ok {
		return booking.ErrNotFound
	}
	f.IsActive, f.UpdatedAt = active, s.now()
	s.formations[id] = f
	return nil
}

func (s *Store) CreateSession(_ context.Context, sess *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.formations[sess.FormationID]; !ok {
		return booking.ErrNotFound
	}
	sess.ID = s.nextID()
	sess.CreatedAt, sess.UpdatedAt = s.now(), s.now()
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *Store) GetSession(_ context.Context, id uint64) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	sess.ActiveReservations = s.activeCount(id)
	return &sess, nil
}

func (s *Store) ListSessions(_ context.Context, formationID uint64) ([]model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Session{}
	for _, sess := range s.sessions {
		if sess.FormationID != formationID {
			continue
		}
		sess.ActiveReservations = s.activeCount(sess.ID)
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) activeCount(sessionID uint64) int {
	n := 0
	for _, r := range s.reservations {
		if r.SessionID == sessionID && r.Status != model.StatusCancelled {
			n++
		}
	}
	return n
}

// Reservations

func (s *Store) CreateReservation(_ context.Context, res *model.Reservation, check func(service.SessionSnapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[res.SessionID]
	if !ok {
		return booking.ErrNotFound
	}
	sess.ActiveReservations = s.activeCount(sess.ID)
	snap := service.SessionSnapshot{Session: sess, Formation: s.formations[sess.FormationID]}
	for _, r := range s.reservations {
		if r.SessionID == sess.ID && r.UserID == res.UserID && r.Status != model.StatusCancelled {
			snap.UserHasBooking = true
			break
		}
	}
	if err := check(snap); err != nil {
		return err
	}
	res.ID = s.nextID()
	res.CreatedAt, res.UpdatedAt = s.now(), s.now()
	s.reservations[res.ID] = *res
	return nil
}

func (s *Store) GetReservation(_ context.Context, id uint64) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return &r, nil
}

func (s *Store) ListReservationsByUser(_ context.Context, userID uint64) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Reservation{}
	for _, r := range s.reservations {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) UpdateReservation(_ context.Context, id uint64, apply func(*model.Reservation) error) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	if err := apply(&r); err != nil {
		return nil, err
	}
	r.UpdatedAt = s.now()
	s.reservations[id] = r
	return &r, nil
}

// Vehicles

func (s *Store) ListVehicles(_ context.Context, activeOnly bool) ([]model.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Vehicle{}
	for _, v := range s.vehicles {
		if activeOnly && !v.IsActive {
			continue
		}
		out = append(out, v)
	}
	booking.SortVehicles(out)
	return out, nil
}

func (s *Store) GetVehicle(_ context.Context, id uint64) (*model.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return &v, nil
}

func (s *Store) CreateVehicle(_ context.Context, v *model.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.vehicles {
		if existing.Plate == v.Plate {
			return booking.ErrConflict
		}
	}
	v.ID = s.nextID()
	v.CreatedAt, v.UpdatedAt = s.now(), s.now()
	s.vehicles[v.ID] = *v
	return nil
}

func (s *Store) ListBlockingRentals(_ context.Context, r booking.DateRange, vehicleID uint64) ([]model.VehicleRental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocking(r, vehicleID, 0), nil
}

func (s *Store) blocking(r booking.DateRange, vehicleID, excludeID uint64) []model.VehicleRental {
	out := []model.VehicleRental{}
	for _, rental := range s.rentals {
		if rental.ID == excludeID || rental.VehicleID == nil || !rental.Status.Blocking() {
			continue
		}
		if vehicleID != 0 && *rental.VehicleID != vehicleID {
			continue
		}
		if booking.RentalRange(rental).Overlaps(r) {
			out = append(out, rental)
		}
	}
	return out
}

// Rentals

func (s *Store) CreateRental(_ context.Context, r *model.VehicleRental, check func(*model.Vehicle, []model.VehicleRental) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var vehicle *model.Vehicle
	var blocking []model.VehicleRental
	if r.VehicleID != nil {
		if v, ok := s.vehicles[*r.VehicleID]; ok {
			vehicle = &v
			blocking = s.blocking(booking.RentalRange(*r), v.ID, 0)
		}
	}
	if err := check(vehicle, blocking); err != nil {
		return err
	}
	for _, existing := range s.rentals {
		if existing.TrackingToken == r.TrackingToken {
			return booking.ErrConflict
		}
	}
	r.ID = s.nextID()
	r.CreatedAt, r.UpdatedAt = s.now(), s.now()
	s.rentals[r.ID] = *r
	return nil
}

func (s *Store) GetRental(_ context.Context, id uint64) (*model.VehicleRental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rentals[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return &r, nil
}

func (s *Store) GetRentalByToken(_ context.Context, token string) (*model.VehicleRental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rentals {
		if r.TrackingToken == token {
			return &r, nil
		}
	}
	return nil, booking.ErrNotFound
}

func (s *Store) ListRentalsByUser(_ context.Context, userID uint64) ([]model.VehicleRental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.VehicleRental{}
	for _, r := range s.rentals {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) ListRentals(_ context.Context, from, to time.Time) ([]model.VehicleRental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.VehicleRental{}
	for _, r := range s.rentals {
		if r.StartDate.Before(from) || r.StartDate.After(to) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateRental(_ context.Context, id uint64, apply func(*model.VehicleRental, []model.VehicleRental) error) (*model.VehicleRental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rentals[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	var blocking []model.VehicleRental
	if r.VehicleID != nil {
		blocking = s.blocking(booking.RentalRange(r), *r.VehicleID, r.ID)
	}
	if err := apply(&r, blocking); err != nil {
		return nil, err
	}
	r.UpdatedAt = s.now()
	s.rentals[id] = r
	return &r, nil
}

// Documents

func (s *Store) CreateTempDocument(_ context.Context, d *model.TempDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.temps[d.TempID]; ok {
		return booking.ErrConflict
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = s.now()
	}
	s.temps[d.TempID] = *d
	return nil
}

func (s *Store) GetTempDocument(_ context.Context, tempID string) (*model.TempDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.temps[tempID]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return &d, nil
}

func (s *Store) DeleteTempDocument(_ context.Context, tempID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.temps[tempID]; !ok {
		return booking.ErrNotFound
	}
	delete(s.temps, tempID)
	return nil
}

func (s *Store) ListTempDocumentsBefore(_ context.Context, before time.Time, offset, limit int) ([]model.TempDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.TempDocument{}
	for _, d := range s.temps {
		if d.CreatedAt.Before(before) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].TempID < out[j].TempID
	})
	if offset > 0 {
		if offset >= len(out) {
			return []model.TempDocument{}, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CreateDocument(_ context.Context, d *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = s.nextID()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = s.now()
	}
	s.documents[d.ID] = *d
	return nil
}

func (s *Store) ListDocuments(_ context.Context, owner model.DocumentOwner) ([]model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Document{}
	for _, d := range s.documents {
		if d.Owner == owner {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
