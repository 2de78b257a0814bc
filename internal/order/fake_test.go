package order

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warimas/backoffice/internal/audit"
	"github.com/warimas/backoffice/internal/customer"
	"github.com/warimas/backoffice/internal/product"
)

// memStore is an in-memory Store. A transaction holds the store mutex for
// its whole life and is undone from a snapshot when fn fails, which gives
// the same all-or-nothing and serialisation guarantees the SQL store gets
// from row and advisory locks.
type memStore struct {
	mu sync.Mutex
	memState

	// failures injected by tests
	failInsertLine    error
	conflictsToReturn int
}

type memState struct {
	nextID    int64
	orders    map[int64]Order
	lines     map[int64]Line
	products  map[int64]product.Product
	customers map[int64]customer.Customer
	audits    []audit.Entry
	statuses  []Status

	stockCalls int
	lineWrites int
}

func newMemStore() *memStore {
	return &memStore{memState: memState{
		nextID:    100,
		orders:    map[int64]Order{},
		lines:     map[int64]Line{},
		products:  map[int64]product.Product{},
		customers: map[int64]customer.Customer{},
		statuses: []Status{
			{ID: 1, Name: StatusDraft, Label: "Draft"},
			{ID: 2, Name: StatusFinished, Label: "Finished"},
		},
	}}
}

func (s memState) clone() memState {
	c := s
	c.orders = make(map[int64]Order, len(s.orders))
	for k, v := range s.orders {
		c.orders[k] = v
	}
	c.lines = make(map[int64]Line, len(s.lines))
	for k, v := range s.lines {
		c.lines[k] = v
	}
	c.products = make(map[int64]product.Product, len(s.products))
	for k, v := range s.products {
		c.products[k] = v
	}
	c.customers = make(map[int64]customer.Customer, len(s.customers))
	for k, v := range s.customers {
		c.customers[k] = v
	}
	c.audits = append([]audit.Entry(nil), s.audits...)
	return c
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) addProduct(teamID, id int64, qty int, cost, price string) {
	s.products[id] = product.Product{
		ID:       id,
		TeamID:   teamID,
		Name:     "product",
		Cost:     decimal.RequireFromString(cost),
		Price:    decimal.RequireFromString(price),
		Quantity: qty,
	}
}

func (s *memStore) addCustomer(teamID, id int64, first string) {
	s.customers[id] = customer.Customer{ID: id, TeamID: teamID, FirstName: first, LastName: "Koval"}
}

func (s *memStore) stock(id int64) int {
	return s.products[id].Quantity
}

func (s *memStore) orderLines(orderID int64) []Line {
	var out []Line
	for _, l := range s.lines {
		if l.OrderID == orderID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.memState.clone()
	h := &memHandle{s: s}
	err := fn(ctx, Tx{Orders: h, Products: h, Customers: &memCustomers{s: s}, Audit: h})
	if err != nil {
		s.memState = snap
	}
	return err
}

func (s *memStore) Orders() Repository      { return &memHandle{s: s} }
func (s *memStore) Audit() audit.Repository { return &memHandle{s: s} }

// memHandle implements the order, stock and audit interfaces.
type memHandle struct {
	s *memStore
}

// --- orders ---

func (h *memHandle) FindByID(ctx context.Context, teamID, id int64) (*Order, error) {
	o, ok := h.s.orders[id]
	if !ok || o.TeamID != teamID || o.DeletedAt != nil {
		return nil, ErrOrderNotFound
	}
	return &o, nil
}

func (h *memHandle) LockByID(ctx context.Context, teamID, id int64) (*Order, error) {
	return h.FindByID(ctx, teamID, id)
}

func (h *memHandle) List(ctx context.Context, teamID int64, filter ListFilter) ([]Order, int, error) {
	var out []Order
	for _, o := range h.s.orders {
		if o.TeamID == teamID && o.DeletedAt == nil && strings.HasPrefix(o.Num, filter.Search) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (h *memHandle) Insert(ctx context.Context, o *Order) error {
	if h.s.conflictsToReturn > 0 {
		h.s.conflictsToReturn--
		return ErrNumberConflict
	}
	for _, other := range h.s.orders {
		if other.TeamID == o.TeamID && other.Num == o.Num {
			return ErrNumberConflict
		}
	}
	o.ID = h.s.id()
	o.CreatedAt, o.UpdatedAt = time.Now(), time.Now()
	stored := *o
	stored.Lines = nil
	h.s.orders[o.ID] = stored
	return nil
}

func (h *memHandle) UpdateHeader(ctx context.Context, o *Order) error {
	cur, ok := h.s.orders[o.ID]
	if !ok || cur.TeamID != o.TeamID || cur.DeletedAt != nil {
		return ErrOrderNotFound
	}
	for id, other := range h.s.orders {
		if id != o.ID && other.TeamID == o.TeamID && other.Num == o.Num {
			return ErrNumberConflict
		}
	}
	stored := *o
	stored.Lines = nil
	stored.TotalCost, stored.TotalPrice = cur.TotalCost, cur.TotalPrice
	h.s.orders[o.ID] = stored
	return nil
}

func (h *memHandle) SetTotals(ctx context.Context, teamID, id int64, cost, price decimal.Decimal) error {
	o, ok := h.s.orders[id]
	if !ok || o.TeamID != teamID {
		return ErrOrderNotFound
	}
	o.TotalCost, o.TotalPrice = cost, price
	h.s.orders[id] = o
	return nil
}

func (h *memHandle) SoftDelete(ctx context.Context, teamID, id int64) error {
	o, ok := h.s.orders[id]
	if !ok || o.TeamID != teamID || o.DeletedAt != nil {
		return ErrOrderNotFound
	}
	now := time.Now()
	o.DeletedAt = &now
	h.s.orders[id] = o
	return nil
}

func (h *memHandle) Lines(ctx context.Context, orderID int64) ([]Line, error) {
	return h.s.orderLines(orderID), nil
}

func (h *memHandle) InsertLine(ctx context.Context, l *Line) error {
	if h.s.failInsertLine != nil {
		return h.s.failInsertLine
	}
	for _, other := range h.s.lines {
		if other.OrderID == l.OrderID && other.ProductID == l.ProductID {
			return errors.New("duplicate line")
		}
	}
	l.ID = h.s.id()
	h.s.lines[l.ID] = *l
	h.s.lineWrites++
	return nil
}

func (h *memHandle) UpdateLine(ctx context.Context, l *Line) error {
	if _, ok := h.s.lines[l.ID]; !ok {
		return errors.New("line not found")
	}
	h.s.lines[l.ID] = *l
	h.s.lineWrites++
	return nil
}

func (h *memHandle) DeleteLine(ctx context.Context, lineID int64) error {
	delete(h.s.lines, lineID)
	h.s.lineWrites++
	return nil
}

func (h *memHandle) DeleteLines(ctx context.Context, orderID int64) error {
	for id, l := range h.s.lines {
		if l.OrderID == orderID {
			delete(h.s.lines, id)
		}
	}
	return nil
}

func (h *memHandle) LockNumbering(ctx context.Context, teamID int64) error { return nil }

func (h *memHandle) LastSequence(ctx context.Context, teamID int64, prefix string) (int, error) {
	re := regexp.MustCompile(sequencePattern(prefix))
	last := 0
	for _, o := range h.s.orders {
		if o.TeamID != teamID || !re.MatchString(o.Num) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(o.Num, prefix))
		if err != nil {
			return 0, err
		}
		if n > last {
			last = n
		}
	}
	return last, nil
}

func (h *memHandle) StatusByName(ctx context.Context, name string) (*Status, error) {
	for _, st := range h.s.statuses {
		if st.Name == name {
			st := st
			return &st, nil
		}
	}
	return nil, ErrStatusNotFound
}

func (h *memHandle) StatusByID(ctx context.Context, id int64) (*Status, error) {
	for _, st := range h.s.statuses {
		if st.ID == id {
			st := st
			return &st, nil
		}
	}
	return nil, ErrStatusNotFound
}

func (h *memHandle) Statuses(ctx context.Context) ([]Status, error) {
	return append([]Status(nil), h.s.statuses...), nil
}

// --- stock ledger ---

func (h *memHandle) FindForUpdate(ctx context.Context, teamID, productID int64) (*product.Product, error) {
	p, ok := h.s.products[productID]
	if !ok || p.TeamID != teamID {
		return nil, product.ErrProductNotFound
	}
	return &p, nil
}

func (h *memHandle) DecrementQuantity(ctx context.Context, teamID, productID int64, amount int) error {
	return h.adjust(teamID, productID, -amount)
}

func (h *memHandle) IncrementQuantity(ctx context.Context, teamID, productID int64, amount int) error {
	return h.adjust(teamID, productID, amount)
}

func (h *memHandle) adjust(teamID, productID int64, delta int) error {
	if delta == 0 {
		return nil
	}
	p, ok := h.s.products[productID]
	if !ok || p.TeamID != teamID {
		return product.ErrProductNotFound
	}
	p.Quantity += delta
	h.s.products[productID] = p
	h.s.stockCalls++
	return nil
}

// --- customers ---

type memCustomers struct {
	s *memStore
}

func (h *memCustomers) Create(ctx context.Context, teamID int64, in customer.Input) (*customer.Customer, error) {
	c := customer.Customer{
		ID:        h.s.id(),
		TeamID:    teamID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		Address:   in.Address,
	}
	h.s.customers[c.ID] = c
	return &c, nil
}

func (h *memCustomers) FindByID(ctx context.Context, teamID, id int64) (*customer.Customer, error) {
	c, ok := h.s.customers[id]
	if !ok || c.TeamID != teamID {
		return nil, customer.ErrCustomerNotFound
	}
	return &c, nil
}

func (h *memCustomers) UpdateContact(ctx context.Context, teamID, id int64, ct customer.Contact) (*customer.Customer, error) {
	c, ok := h.s.customers[id]
	if !ok || c.TeamID != teamID {
		return nil, customer.ErrCustomerNotFound
	}
	c.FirstName, c.LastName, c.Phone, c.Address = ct.FirstName, ct.LastName, ct.Phone, ct.Address
	h.s.customers[id] = c
	return &c, nil
}

// --- audit ---

func (h *memHandle) Record(ctx context.Context, teamID int64, subject audit.Subject, event audit.Event, before, after any) error {
	h.s.audits = append(h.s.audits, audit.Entry{
		ID:       h.s.id(),
		TeamID:   teamID,
		Kind:     subject.Kind,
		EntityID: subject.ID,
		Event:    event,
	})
	return nil
}

func (h *memHandle) History(ctx context.Context, teamID int64, subject audit.Subject) ([]audit.Entry, error) {
	var out []audit.Entry
	for i := len(h.s.audits) - 1; i >= 0; i-- {
		e := h.s.audits[i]
		if e.TeamID == teamID && e.Kind == subject.Kind && e.EntityID == subject.ID {
			out = append(out, e)
		}
	}
	return out, nil
}
