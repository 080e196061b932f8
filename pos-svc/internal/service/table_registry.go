package service

import (
	"fmt"
	"sort"
	"time"

	"restaurant-pos/pos-svc/internal/domain"
)

// TableRegistry owns the floor's tables. IDs are fixed at construction and
// tables are never removed.
type TableRegistry struct {
	tables map[int]*domain.Table
	clock  func() time.Time
}

func NewTableRegistry(layout []domain.Table, clock func() time.Time) *TableRegistry {
	if clock == nil {
		clock = time.Now
	}
	r := &TableRegistry{tables: make(map[int]*domain.Table, len(layout)), clock: clock}
	for _, t := range layout {
		t := copyTable(t)
		if t.Status == "" {
			t.Status = domain.TableEmpty
		}
		r.tables[t.ID] = &t
	}
	return r
}

func (r *TableRegistry) Clone() *TableRegistry {
	c := &TableRegistry{tables: make(map[int]*domain.Table, len(r.tables)), clock: r.clock}
	for id, t := range r.tables {
		t := copyTable(*t)
		c.tables[id] = &t
	}
	return c
}

func (r *TableRegistry) Table(id int) (domain.Table, error) {
	t, err := r.get(id)
	if err != nil {
		return domain.Table{}, err
	}
	return copyTable(*t), nil
}

func (r *TableRegistry) List() []domain.Table {
	out := make([]domain.Table, 0, len(r.tables))
	for _, t := range r.tables {
		out = append(out, copyTable(*t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *TableRegistry) OpenTable(id, guests int) error {
	t, err := r.get(id)
	if err != nil {
		return err
	}
	if t.Status != domain.TableEmpty {
		return domain.TransitionError{Entity: "table", ID: id, From: string(t.Status), To: string(domain.TableServing)}
	}
	if err := checkGuests(t, guests); err != nil {
		return err
	}
	r.seat(t, guests, r.clock())
	return nil
}

// SeatBooking moves a booked party onto its table.
func (r *TableRegistry) SeatBooking(id, guests int) error {
	t, err := r.get(id)
	if err != nil {
		return err
	}
	if t.Status != domain.TableBooked {
		return domain.TransitionError{Entity: "table", ID: id, From: string(t.Status), To: string(domain.TableServing)}
	}
	if err := checkGuests(t, guests); err != nil {
		return err
	}
	r.seat(t, guests, r.clock())
	return nil
}

func (r *TableRegistry) RecordBooking(id int, details domain.BookingDetails) error {
	t, err := r.get(id)
	if err != nil {
		return err
	}
	if details.Name == "" {
		return domain.ValidationError{Field: "name", Message: "booking name is required"}
	}
	if details.Phone == "" {
		return domain.ValidationError{Field: "phone", Message: "booking phone is required"}
	}
	b := details
	t.Status = domain.TableBooked
	t.Booking = &b
	t.CustomerCount = nil
	t.OpenedAt = nil
	return nil
}

// UpdateBookingDetails overwrites the booking fields that are set in partial.
func (r *TableRegistry) UpdateBookingDetails(id int, partial domain.BookingDetails) error {
	t, err := r.get(id)
	if err != nil {
		return err
	}
	if t.Status != domain.TableBooked || t.Booking == nil {
		return domain.TransitionError{Entity: "table", ID: id, From: string(t.Status), Reason: "table has no booking to update"}
	}
	b := *t.Booking
	if partial.Name != "" {
		b.Name = partial.Name
	}
	if partial.Phone != "" {
		b.Phone = partial.Phone
	}
	if partial.Time != "" {
		b.Time = partial.Time
	}
	if partial.Notes != "" {
		b.Notes = partial.Notes
	}
	t.Booking = &b
	return nil
}

func (r *TableRegistry) CloseTable(id int) error {
	t, err := r.get(id)
	if err != nil {
		return err
	}
	vacate(t)
	return nil
}

// Transfer moves the party at sourceID onto the empty table targetID and
// closes the source. The caller re-keys the order.
func (r *TableRegistry) Transfer(sourceID, targetID int) error {
	if sourceID == targetID {
		return domain.ValidationError{Field: "target", Message: "cannot transfer a table onto itself"}
	}
	src, err := r.get(sourceID)
	if err != nil {
		return err
	}
	dst, err := r.get(targetID)
	if err != nil {
		return err
	}
	if src.Status != domain.TableServing {
		return domain.TransitionError{Entity: "table", ID: sourceID, From: string(src.Status), Reason: "only a serving table can be transferred"}
	}
	if dst.Status != domain.TableEmpty {
		return domain.TransitionError{Entity: "table", ID: targetID, From: string(dst.Status), To: string(domain.TableServing)}
	}
	guests := *src.CustomerCount
	if dst.MaxSeats > 0 && guests > dst.MaxSeats {
		return domain.ValidationError{
			Field:   "target",
			Message: fmt.Sprintf("table %d seats %d, party has %d guests", targetID, dst.MaxSeats, guests),
		}
	}
	openedAt := r.clock()
	if src.OpenedAt != nil {
		openedAt = *src.OpenedAt
	}
	r.seat(dst, guests, openedAt)
	vacate(src)
	return nil
}

// Merge empties every table in targetIDs. The absorbing table is left alone.
func (r *TableRegistry) Merge(targetIDs []int) error {
	tables := make([]*domain.Table, 0, len(targetIDs))
	for _, id := range targetIDs {
		t, err := r.get(id)
		if err != nil {
			return err
		}
		tables = append(tables, t)
	}
	for _, t := range tables {
		vacate(t)
	}
	return nil
}

func (r *TableRegistry) get(id int) (*domain.Table, error) {
	t, ok := r.tables[id]
	if !ok {
		return nil, domain.TableNotFound(id)
	}
	return t, nil
}

func (r *TableRegistry) seat(t *domain.Table, guests int, openedAt time.Time) {
	count := guests
	t.Status = domain.TableServing
	t.CustomerCount = &count
	t.OpenedAt = &openedAt
	t.Booking = nil
}

func checkGuests(t *domain.Table, guests int) error {
	if guests < 1 {
		return domain.ValidationError{Field: "guests", Message: "at least one guest is required"}
	}
	if t.MaxSeats > 0 && guests > t.MaxSeats {
		return domain.ValidationError{
			Field:   "guests",
			Message: fmt.Sprintf("table %d seats at most %d guests", t.ID, t.MaxSeats),
		}
	}
	return nil
}

func vacate(t *domain.Table) {
	t.Status = domain.TableEmpty
	t.CustomerCount = nil
	t.OpenedAt = nil
	t.Booking = nil
}

func copyTable(t domain.Table) domain.Table {
	c := t
	if t.CustomerCount != nil {
		n := *t.CustomerCount
		c.CustomerCount = &n
	}
	if t.OpenedAt != nil {
		at := *t.OpenedAt
		c.OpenedAt = &at
	}
	if t.Booking != nil {
		b := *t.Booking
		c.Booking = &b
	}
	return c
}
