package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"cinema-ops/internal/data/entity"
	"cinema-ops/internal/data/repository"
	"cinema-ops/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// In-memory repository fakes. State lives in memStore; the fakes copy
// entities on the way in and out so tests observe the same
// read-your-own-snapshot behavior a real transaction gives.

type memStore struct {
	mu          sync.Mutex
	films       map[uuid.UUID]entity.Film
	auditoriums map[uuid.UUID]entity.Auditorium
	rows        map[uuid.UUID]entity.Row
	seats       map[uuid.UUID]entity.Seat
	showtimes   map[uuid.UUID]entity.Showtime
	tickets     map[uuid.UUID]entity.Ticket
	bookings    map[uuid.UUID]entity.Booking
	customers   map[uuid.UUID]entity.Customer
	outbox      []entity.OutboxEvent
}

func newMemStore() *memStore {
	return &memStore{
		films:       make(map[uuid.UUID]entity.Film),
		auditoriums: make(map[uuid.UUID]entity.Auditorium),
		rows:        make(map[uuid.UUID]entity.Row),
		seats:       make(map[uuid.UUID]entity.Seat),
		showtimes:   make(map[uuid.UUID]entity.Showtime),
		tickets:     make(map[uuid.UUID]entity.Ticket),
		bookings:    make(map[uuid.UUID]entity.Booking),
		customers:   make(map[uuid.UUID]entity.Customer),
	}
}

func (m *memStore) repository() *repository.Repository {
	return &repository.Repository{
		Film:       &memFilmRepo{m},
		Auditorium: &memAuditoriumRepo{m},
		Seat:       &memSeatRepo{m},
		Showtime:   &memShowtimeRepo{m},
		Ticket:     &memTicketRepo{m},
		Booking:    &memBookingRepo{m},
		Customer:   &memCustomerRepo{m},
		Outbox:     &memOutboxRepo{m},
	}
}

// fakeUOW runs the closure directly against the shared store and fires
// after-commit hooks when it returns nil, mirroring the real contract.
type fakeUOW struct {
	store *memStore
	// tickets, when set, replaces the ticket repository handed to the
	// closure. Tests use it to inject version conflicts.
	tickets repository.TicketRepository
}

func (u *fakeUOW) Do(ctx context.Context, fn func(ctx context.Context, tx *repository.Repository, after func(repository.AfterCommit)) error) error {
	repos := u.store.repository()
	if u.tickets != nil {
		repos.Ticket = u.tickets
	}
	var hooks []repository.AfterCommit
	err := fn(ctx, repos, func(h repository.AfterCommit) {
		hooks = append(hooks, h)
	})
	if err != nil {
		return err
	}
	for _, h := range hooks {
		h(ctx)
	}
	return nil
}

func (u *fakeUOW) DoSerializable(ctx context.Context, fn func(ctx context.Context, tx *repository.Repository, after func(repository.AfterCommit)) error) error {
	return u.Do(ctx, fn)
}

type fakeKicker struct {
	mu    sync.Mutex
	kicks int
}

func (k *fakeKicker) Kick() {
	k.mu.Lock()
	k.kicks++
	k.mu.Unlock()
}

func (k *fakeKicker) count() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.kicks
}

func testLogger() *zap.Logger { return zap.NewNop() }

// ==================== FILM ====================

type memFilmRepo struct{ s *memStore }

func (r *memFilmRepo) Create(ctx context.Context, film *entity.Film) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.films {
		if strings.EqualFold(existing.Title, film.Title) {
			return repository.ErrConflict
		}
	}
	r.s.films[film.ID] = *film
	return nil
}

func (r *memFilmRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Film, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if film, ok := r.s.films[id]; ok {
		return &film, nil
	}
	return nil, nil
}

func (r *memFilmRepo) FindByTitle(ctx context.Context, title string) (*entity.Film, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, film := range r.s.films {
		if strings.EqualFold(film.Title, title) {
			f := film
			return &f, nil
		}
	}
	return nil, nil
}

func (r *memFilmRepo) FindAll(ctx context.Context, limit, offset int) ([]*entity.Film, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var films []*entity.Film
	for _, film := range r.s.films {
		f := film
		films = append(films, &f)
	}
	sort.Slice(films, func(i, j int) bool { return films[i].Title < films[j].Title })
	if offset >= len(films) {
		return nil, nil
	}
	films = films[offset:]
	if limit > 0 && limit < len(films) {
		films = films[:limit]
	}
	return films, nil
}

func (r *memFilmRepo) Count(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.films)), nil
}

func (r *memFilmRepo) Update(ctx context.Context, film *entity.Film) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.films[film.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.films[film.ID] = *film
	return nil
}

// ==================== AUDITORIUM ====================

type memAuditoriumRepo struct{ s *memStore }

func (r *memAuditoriumRepo) Create(ctx context.Context, auditorium *entity.Auditorium) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.auditoriums {
		if existing.Name == auditorium.Name {
			return repository.ErrConflict
		}
	}
	stored := *auditorium
	stored.Rows = nil
	r.s.auditoriums[auditorium.ID] = stored
	return nil
}

func (r *memAuditoriumRepo) CreateRow(ctx context.Context, row *entity.Row) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *row
	stored.Seats = nil
	r.s.rows[row.ID] = stored
	return nil
}

func (r *memAuditoriumRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Auditorium, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if auditorium, ok := r.s.auditoriums[id]; ok {
		return &auditorium, nil
	}
	return nil, nil
}

func (r *memAuditoriumRepo) FindAll(ctx context.Context) ([]*entity.Auditorium, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var auditoriums []*entity.Auditorium
	for _, auditorium := range r.s.auditoriums {
		a := auditorium
		auditoriums = append(auditoriums, &a)
	}
	sort.Slice(auditoriums, func(i, j int) bool { return auditoriums[i].Name < auditoriums[j].Name })
	return auditoriums, nil
}

func (r *memAuditoriumRepo) FindRowsByAuditoriumID(ctx context.Context, auditoriumID uuid.UUID) ([]*entity.Row, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var rows []*entity.Row
	for _, row := range r.s.rows {
		if row.AuditoriumID == auditoriumID {
			rw := row
			rows = append(rows, &rw)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Label < rows[j].Label })
	return rows, nil
}

// ==================== SEAT ====================

type memSeatRepo struct{ s *memStore }

func (r *memSeatRepo) CreateBatch(ctx context.Context, seats []*entity.Seat) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, seat := range seats {
		r.s.seats[seat.ID] = *seat
	}
	return nil
}

func (r *memSeatRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Seat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if seat, ok := r.s.seats[id]; ok {
		return &seat, nil
	}
	return nil, nil
}

func (r *memSeatRepo) FindByAuditoriumID(ctx context.Context, auditoriumID uuid.UUID) ([]*entity.Seat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var seats []*entity.Seat
	for _, seat := range r.s.seats {
		row, ok := r.s.rows[seat.RowID]
		if !ok || row.AuditoriumID != auditoriumID {
			continue
		}
		st := seat
		seats = append(seats, &st)
	}
	sort.Slice(seats, func(i, j int) bool { return seats[i].Number < seats[j].Number })
	return seats, nil
}

// ==================== SHOWTIME ====================

type memShowtimeRepo struct{ s *memStore }

func (r *memShowtimeRepo) Create(ctx context.Context, showtime *entity.Showtime) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.showtimes[showtime.ID] = *showtime
	return nil
}

func (r *memShowtimeRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Showtime, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if showtime, ok := r.s.showtimes[id]; ok {
		return &showtime, nil
	}
	return nil, nil
}

func (r *memShowtimeRepo) FindByAuditoriumID(ctx context.Context, auditoriumID uuid.UUID) ([]*entity.Showtime, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.collect(func(s entity.Showtime) bool { return s.AuditoriumID == auditoriumID }), nil
}

func (r *memShowtimeRepo) FindByFilmID(ctx context.Context, filmID uuid.UUID) ([]*entity.Showtime, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.collect(func(s entity.Showtime) bool { return s.FilmID == filmID }), nil
}

func (r *memShowtimeRepo) FindByDay(ctx context.Context, day time.Time) ([]*entity.Showtime, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	next := day.AddDate(0, 0, 1)
	return r.collect(func(s entity.Showtime) bool {
		return !s.StartsAt.Before(day) && s.StartsAt.Before(next)
	}), nil
}

func (r *memShowtimeRepo) FindByAuditoriumAndDay(ctx context.Context, auditoriumID uuid.UUID, day time.Time) ([]*entity.Showtime, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	next := day.AddDate(0, 0, 1)
	return r.collect(func(s entity.Showtime) bool {
		return s.AuditoriumID == auditoriumID && !s.StartsAt.Before(day) && s.StartsAt.Before(next)
	}), nil
}

// collect assumes the caller holds the lock.
func (r *memShowtimeRepo) collect(match func(entity.Showtime) bool) []*entity.Showtime {
	var showtimes []*entity.Showtime
	for _, showtime := range r.s.showtimes {
		if match(showtime) {
			s := showtime
			showtimes = append(showtimes, &s)
		}
	}
	sort.Slice(showtimes, func(i, j int) bool { return showtimes[i].StartsAt.Before(showtimes[j].StartsAt) })
	return showtimes
}

func (r *memShowtimeRepo) Update(ctx context.Context, showtime *entity.Showtime) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.showtimes[showtime.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.showtimes[showtime.ID] = *showtime
	return nil
}

func (r *memShowtimeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.showtimes, id)
	return nil
}

// ==================== TICKET ====================

type memTicketRepo struct{ s *memStore }

func (r *memTicketRepo) CreateBatch(ctx context.Context, tickets []*entity.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, ticket := range tickets {
		for _, existing := range r.s.tickets {
			if existing.ShowtimeID == ticket.ShowtimeID && existing.SeatID == ticket.SeatID {
				return repository.ErrConflict
			}
		}
		r.s.tickets[ticket.ID] = *ticket
	}
	return nil
}

func (r *memTicketRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if ticket, ok := r.s.tickets[id]; ok {
		return &ticket, nil
	}
	return nil, nil
}

func (r *memTicketRepo) FindByShowtimeID(ctx context.Context, showtimeID uuid.UUID) ([]*entity.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var tickets []*entity.Ticket
	for _, ticket := range r.s.tickets {
		if ticket.ShowtimeID == showtimeID {
			t := ticket
			tickets = append(tickets, &t)
		}
	}
	return tickets, nil
}

func (r *memTicketRepo) FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]*entity.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var tickets []*entity.Ticket
	for _, id := range ids {
		if ticket, ok := r.s.tickets[id]; ok {
			t := ticket
			tickets = append(tickets, &t)
		}
	}
	return tickets, nil
}

func (r *memTicketRepo) FindBySeatIDsForUpdate(ctx context.Context, showtimeID uuid.UUID, seatIDs []uuid.UUID) ([]*entity.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	wanted := make(map[uuid.UUID]bool, len(seatIDs))
	for _, id := range seatIDs {
		wanted[id] = true
	}
	var tickets []*entity.Ticket
	for _, ticket := range r.s.tickets {
		if ticket.ShowtimeID == showtimeID && wanted[ticket.SeatID] {
			t := ticket
			tickets = append(tickets, &t)
		}
	}
	return tickets, nil
}

func (r *memTicketRepo) UpdateStatusVersioned(ctx context.Context, ticket *entity.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.tickets[ticket.ID]
	if !ok || stored.Version != ticket.Version {
		return repository.ErrStaleVersion
	}
	updated := *ticket
	updated.Version = stored.Version + 1
	r.s.tickets[ticket.ID] = updated
	ticket.Version = updated.Version
	return nil
}

func (r *memTicketRepo) CountFree(ctx context.Context, showtimeID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, ticket := range r.s.tickets {
		if ticket.ShowtimeID == showtimeID && ticket.Status == entity.TicketStatusFree {
			count++
		}
	}
	return count, nil
}

func (r *memTicketRepo) DeleteByShowtimeID(ctx context.Context, showtimeID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var deleted int64
	for id, ticket := range r.s.tickets {
		if ticket.ShowtimeID == showtimeID {
			delete(r.s.tickets, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memTicketRepo) FreeExpiredHolds(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var freed int64
	for id, ticket := range r.s.tickets {
		if ticket.Status == entity.TicketStatusReserved && ticket.ReservedUntil != nil && ticket.ReservedUntil.Before(now) {
			ticket.Status = entity.TicketStatusFree
			ticket.OwnerID = nil
			ticket.ReservedUntil = nil
			ticket.Version++
			r.s.tickets[id] = ticket
			freed++
		}
	}
	return freed, nil
}

// ==================== BOOKING ====================

type memBookingRepo struct{ s *memStore }

func (r *memBookingRepo) Create(ctx context.Context, booking *entity.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.bookings[booking.ID] = *booking
	return nil
}

func (r *memBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if booking, ok := r.s.bookings[id]; ok {
		return &booking, nil
	}
	return nil, nil
}

func (r *memBookingRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r *memBookingRepo) FindByShowtimeID(ctx context.Context, showtimeID uuid.UUID) ([]*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var bookings []*entity.Booking
	for _, booking := range r.s.bookings {
		if booking.ShowtimeID == showtimeID {
			b := booking
			bookings = append(bookings, &b)
		}
	}
	return bookings, nil
}

func (r *memBookingRepo) MarkPaid(ctx context.Context, id uuid.UUID, amount float64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	booking, ok := r.s.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	if booking.Paid {
		return repository.ErrConflict
	}
	booking.Paid = true
	booking.AmountPaid = amount
	r.s.bookings[id] = booking
	return nil
}

// ==================== CUSTOMER ====================

type memCustomerRepo struct{ s *memStore }

func (r *memCustomerRepo) Create(ctx context.Context, customer *entity.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.customers {
		if strings.EqualFold(existing.Email, customer.Email) {
			return repository.ErrConflict
		}
	}
	r.s.customers[customer.ID] = *customer
	return nil
}

func (r *memCustomerRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if customer, ok := r.s.customers[id]; ok {
		return &customer, nil
	}
	return nil, nil
}

func (r *memCustomerRepo) FindByEmail(ctx context.Context, email string) (*entity.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, customer := range r.s.customers {
		if strings.EqualFold(customer.Email, email) {
			c := customer
			return &c, nil
		}
	}
	return nil, nil
}

// ==================== OUTBOX ====================

type memOutboxRepo struct{ s *memStore }

func (r *memOutboxRepo) Add(ctx context.Context, event *entity.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.outbox = append(r.s.outbox, *event)
	return nil
}

func (r *memOutboxRepo) FetchPending(ctx context.Context, limit int) ([]*entity.OutboxEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var pending []*entity.OutboxEvent
	for i := range r.s.outbox {
		if r.s.outbox[i].PublishedAt == nil {
			e := r.s.outbox[i]
			pending = append(pending, &e)
			if limit > 0 && len(pending) == limit {
				break
			}
		}
	}
	return pending, nil
}

func (r *memOutboxRepo) MarkPublished(ctx context.Context, ids []uuid.UUID, publishedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	marked := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		marked[id] = true
	}
	for i := range r.s.outbox {
		if marked[r.s.outbox[i].ID] {
			at := publishedAt
			r.s.outbox[i].PublishedAt = &at
		}
	}
	return nil
}

// ==================== TEST ENV ====================

type testEnv struct {
	store  *memStore
	svc    *Service
	kicker *fakeKicker
	config *utils.Config
}

func newTestEnv() *testEnv {
	store := newMemStore()
	kicker := &fakeKicker{}
	config := &utils.Config{
		Pricing: utils.PricingConfig{Standard: 10, Premium: 15, Luxury: 25},
		Jobs:    utils.JobsConfig{HoldDuration: 15 * time.Minute},
	}
	svc := NewService(store.repository(), &fakeUOW{store: store}, kicker, config, testLogger())
	return &testEnv{store: store, svc: svc, kicker: kicker, config: config}
}

// staleTicketRepo reports a stale version on the nth versioned update, as
// if a concurrent writer claimed the ticket between our read and write.
type staleTicketRepo struct {
	repository.TicketRepository
	mu     sync.Mutex
	failOn int
	calls  int
}

func (r *staleTicketRepo) UpdateStatusVersioned(ctx context.Context, ticket *entity.Ticket) error {
	r.mu.Lock()
	r.calls++
	call := r.calls
	r.mu.Unlock()
	if call == r.failOn {
		return repository.ErrStaleVersion
	}
	return r.TicketRepository.UpdateStatusVersioned(ctx, ticket)
}

// failTicketUpdate rewires the service so the nth UpdateStatusVersioned
// call inside a transaction loses the optimistic-lock race.
func (e *testEnv) failTicketUpdate(n int) {
	stale := &staleTicketRepo{TicketRepository: &memTicketRepo{e.store}, failOn: n}
	uow := &fakeUOW{store: e.store, tickets: stale}
	e.svc = NewService(e.store.repository(), uow, e.kicker, e.config, testLogger())
}

func (e *testEnv) seedFilm(title string, runtime int) *entity.Film {
	film := entity.Film{
		Base:    entity.Base{ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()},
		Title:   title,
		Runtime: runtime,
	}
	e.store.films[film.ID] = film
	return &film
}

// seedAuditorium creates an auditorium with a single standard row of the
// given seat count.
func (e *testEnv) seedAuditorium(name string, seatCount int) (*entity.Auditorium, []entity.Seat) {
	auditorium := entity.Auditorium{
		Base: entity.Base{ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()},
		Name: name,
	}
	e.store.auditoriums[auditorium.ID] = auditorium

	row := entity.Row{
		Base:         entity.Base{ID: uuid.New()},
		AuditoriumID: auditorium.ID,
		Label:        "A",
		Category:     entity.PriceCategoryStandard,
	}
	e.store.rows[row.ID] = row

	seats := make([]entity.Seat, seatCount)
	for i := range seats {
		seats[i] = entity.Seat{
			Base:   entity.Base{ID: uuid.New()},
			RowID:  row.ID,
			Number: i + 1,
			Price:  10,
		}
		e.store.seats[seats[i].ID] = seats[i]
	}
	return &auditorium, seats
}

func (e *testEnv) pendingOutbox() []entity.OutboxEvent {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	var pending []entity.OutboxEvent
	for _, row := range e.store.outbox {
		if row.PublishedAt == nil {
			pending = append(pending, row)
		}
	}
	return pending
}
