package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warimas/backoffice/internal/apperr"
	"github.com/warimas/backoffice/internal/audit"
	"github.com/warimas/backoffice/internal/events"
	"github.com/warimas/backoffice/internal/logger"
	"github.com/warimas/backoffice/internal/metrics"
	"github.com/warimas/backoffice/internal/product"
	"github.com/warimas/backoffice/internal/utils"
)

const defaultMaxAttempts = 3

type Service interface {
	CreateOrder(ctx context.Context, teamID int64, in Input) (*Order, error)
	UpdateOrder(ctx context.Context, teamID, orderID int64, in Input) (*Order, error)
	DeleteOrder(ctx context.Context, teamID, orderID int64) (bool, error)
	GetOrder(ctx context.Context, teamID, orderID int64) (*Order, error)
	ListOrders(ctx context.Context, teamID int64, filter ListFilter) (*ListResult, error)
	History(ctx context.Context, teamID, orderID int64) ([]audit.Entry, error)
	Statuses(ctx context.Context) ([]Status, error)
}

type Options struct {
	// LaunchYear maps to the letter A in order numbers.
	LaunchYear int
	// StockCheck rejects lines asking for more than the product has.
	StockCheck bool
	// MaxAttempts bounds retries after a generated number collided.
	MaxAttempts int
	Now         func() time.Time
	// Metrics receives write outcomes; nil allocates a private set.
	Metrics *metrics.Orders
}

type service struct {
	store       Store
	publisher   events.Publisher
	numbers     *NumberGenerator
	stockCheck  bool
	maxAttempts int
	metrics     *metrics.Orders
}

func NewService(store Store, publisher events.Publisher, opts Options) Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewOrders()
	}
	return &service{
		store:       store,
		publisher:   publisher,
		numbers:     NewNumberGenerator(opts.LaunchYear, opts.Now),
		stockCheck:  opts.StockCheck,
		maxAttempts: opts.MaxAttempts,
		metrics:     opts.Metrics,
	}
}

func (s *service) CreateOrder(ctx context.Context, teamID int64, in Input) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateOrder"),
	)
	log.Info("CreateOrder started", zap.Int("items", len(in.Items)))
	timer := metrics.StartTimer()

	in, err := normalizeInput(in, true)
	if err != nil {
		log.Warn("invalid order input", zap.Error(err))
		return nil, err
	}
	items := coalesce(in.Items)

	var created *Order
	for attempt := 1; ; attempt++ {
		created, err = s.createOnce(ctx, teamID, in, items)
		if err == nil {
			break
		}
		if in.Num == nil && errors.Is(err, apperr.ErrConflictOrderNumber) && attempt < s.maxAttempts {
			s.metrics.NumberRetries.Inc()
			log.Warn("generated order number collided, retrying", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		s.recordFailure(err)
		log.Error("failed to create order", zap.Error(err))
		return nil, err
	}

	s.publish(ctx, events.OrderCreated, created)
	s.metrics.Created.Inc()

	log.Info("CreateOrder success",
		zap.Int64("order_id", created.ID),
		zap.String("num", created.Num),
		zap.Duration("duration", timer.Duration()),
	)
	return created, nil
}

func (s *service) createOnce(ctx context.Context, teamID int64, in Input, items []LineInput) (*Order, error) {
	var created *Order
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		customerID, err := ResolveCustomer(ctx, tx.Customers, tx.Audit, teamID, in)
		if err != nil {
			return err
		}

		num := ""
		if in.Num != nil {
			num = *in.Num
		} else if num, err = s.numbers.Next(ctx, tx.Orders, teamID); err != nil {
			return err
		}

		statusID, err := resolveStatus(ctx, tx.Orders, in)
		if err != nil {
			return err
		}

		o := &Order{
			TeamID:     teamID,
			CustomerID: &customerID,
			StatusID:   statusID,
			Num:        num,
			TotalCost:  decimal.Zero,
			TotalPrice: decimal.Zero,
		}
		applyContact(o, in)

		if err := tx.Orders.Insert(ctx, o); err != nil {
			return err
		}

		if err := s.checkStock(ctx, tx.Products, teamID, nil, items); err != nil {
			return err
		}

		res, err := Reconcile(ctx, tx.Products, tx.Orders, teamID, o.ID, items)
		if err != nil {
			return err
		}
		o.TotalCost, o.TotalPrice, o.Lines = res.TotalCost, res.TotalPrice, res.Lines

		if err := tx.Audit.Record(ctx, teamID,
			audit.Subject{Kind: audit.KindOrder, ID: o.ID}, audit.EventCreated, nil, o); err != nil {
			return err
		}

		created = o
		return nil
	})
	return created, err
}

func (s *service) UpdateOrder(ctx context.Context, teamID, orderID int64, in Input) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateOrder"),
		zap.Int64("order_id", orderID),
	)
	log.Info("UpdateOrder started", zap.Int("items", len(in.Items)))
	timer := metrics.StartTimer()

	in, err := normalizeInput(in, false)
	if err != nil {
		log.Warn("invalid order input", zap.Error(err))
		return nil, err
	}
	items := coalesce(in.Items)

	var (
		updated *Order
		res     *Result
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		before, err := tx.Orders.LockByID(ctx, teamID, orderID)
		if err != nil {
			return err
		}
		if before.Lines, err = tx.Orders.Lines(ctx, orderID); err != nil {
			return err
		}

		customerID, err := ResolveCustomer(ctx, tx.Customers, tx.Audit, teamID, in)
		if err != nil {
			return err
		}
		statusID, err := resolveStatus(ctx, tx.Orders, in)
		if err != nil {
			return err
		}

		after := *before
		after.Lines = nil
		after.CustomerID = &customerID
		after.StatusID = statusID
		if in.Num != nil {
			after.Num = *in.Num
		}
		applyContact(&after, in)

		if err := tx.Orders.UpdateHeader(ctx, &after); err != nil {
			return err
		}

		if err := s.checkStock(ctx, tx.Products, teamID, before.Lines, items); err != nil {
			return err
		}

		res, err = Reconcile(ctx, tx.Products, tx.Orders, teamID, orderID, items)
		if err != nil {
			return err
		}
		after.TotalCost, after.TotalPrice, after.Lines = res.TotalCost, res.TotalPrice, res.Lines

		if err := tx.Audit.Record(ctx, teamID,
			audit.Subject{Kind: audit.KindOrder, ID: orderID}, audit.EventUpdated, before, &after); err != nil {
			return err
		}

		updated = &after
		return nil
	})
	if err != nil {
		s.recordFailure(err)
		log.Error("failed to update order", zap.Error(err))
		return nil, err
	}

	s.publish(ctx, events.OrderUpdated, updated)
	s.metrics.Updated.Inc()

	log.Info("UpdateOrder success",
		zap.Int("added", res.Added),
		zap.Int("updated", res.Updated),
		zap.Int("removed", res.Removed),
		zap.Int("unchanged", res.Unchanged),
		zap.Duration("duration", timer.Duration()),
	)
	return updated, nil
}

// DeleteOrder returns every line's quantity to stock before the header is
// soft-deleted; nothing relies on the lines' cascade for stock.
func (s *service) DeleteOrder(ctx context.Context, teamID, orderID int64) (bool, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "DeleteOrder"),
		zap.Int64("order_id", orderID),
	)

	var deleted *Order
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		o, err := tx.Orders.LockByID(ctx, teamID, orderID)
		if err != nil {
			return err
		}
		if o.Lines, err = tx.Orders.Lines(ctx, orderID); err != nil {
			return err
		}

		for _, l := range sortedLines(o.Lines) {
			if err := tx.Products.IncrementQuantity(ctx, teamID, l.ProductID, l.Quantity); err != nil {
				return err
			}
		}
		if err := tx.Orders.DeleteLines(ctx, orderID); err != nil {
			return err
		}
		if err := tx.Orders.SoftDelete(ctx, teamID, orderID); err != nil {
			return err
		}

		deleted = o
		return tx.Audit.Record(ctx, teamID,
			audit.Subject{Kind: audit.KindOrder, ID: orderID}, audit.EventDeleted, o, nil)
	})
	if err != nil {
		s.recordFailure(err)
		log.Error("failed to delete order", zap.Error(err))
		return false, err
	}

	s.publish(ctx, events.OrderDeleted, deleted)
	s.metrics.Deleted.Inc()

	log.Info("DeleteOrder success", zap.Int("lines_returned", len(deleted.Lines)))
	return true, nil
}

func (s *service) GetOrder(ctx context.Context, teamID, orderID int64) (*Order, error) {
	repo := s.store.Orders()

	o, err := repo.FindByID(ctx, teamID, orderID)
	if err != nil {
		return nil, err
	}
	if o.Lines, err = repo.Lines(ctx, orderID); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *service) ListOrders(ctx context.Context, teamID int64, filter ListFilter) (*ListResult, error) {
	filter.Page, filter.Limit, _ = utils.Pagination(filter.Page, filter.Limit)

	items, total, err := s.store.Orders().List(ctx, teamID, filter)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to list orders", zap.Error(err))
		return nil, err
	}
	return &ListResult{Items: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *service) History(ctx context.Context, teamID, orderID int64) ([]audit.Entry, error) {
	return s.store.Audit().History(ctx, teamID, audit.Subject{Kind: audit.KindOrder, ID: orderID})
}

func (s *service) Statuses(ctx context.Context) ([]Status, error) {
	return s.store.Orders().Statuses(ctx)
}

// checkStock locks every target product in id order and verifies it can
// cover the requested quantity. Units already on the order count as
// available since reconciliation returns them first.
func (s *service) checkStock(ctx context.Context, ledger StockLedger, teamID int64, current []Line, targets []LineInput) error {
	if !s.stockCheck {
		return nil
	}

	held := make(map[int64]int, len(current))
	for _, l := range current {
		held[l.ProductID] = l.Quantity
	}

	for _, t := range sortedInputs(targets) {
		p, err := ledger.FindForUpdate(ctx, teamID, t.ProductID)
		if err != nil {
			return err
		}
		if p.DeletedAt != nil && held[t.ProductID] == 0 {
			return fmt.Errorf("product %d: %w", t.ProductID, product.ErrProductNotFound)
		}
		available := p.Quantity + held[t.ProductID]
		if t.Quantity > available {
			return &StockError{ProductID: t.ProductID, Requested: t.Quantity, Available: available}
		}
	}
	return nil
}

func (s *service) publish(ctx context.Context, eventType string, o *Order) {
	err := s.publisher.Publish(ctx, eventType, o.TeamID, strconv.FormatInt(o.ID, 10), toEvent(o))
	if err != nil {
		s.metrics.PublishFailures.Inc()
		logger.FromCtx(ctx).Warn("failed to publish order event",
			zap.String("event", eventType),
			zap.Int64("order_id", o.ID),
			zap.Error(err),
		)
	}
}

func (s *service) recordFailure(err error) {
	if errors.Is(err, apperr.ErrInsufficientStock) {
		s.metrics.StockRejected.Inc()
	}
	s.metrics.Failed.Inc()
}

// resolveStatus picks an explicit status, else finished or draft.
func resolveStatus(ctx context.Context, repo Repository, in Input) (int64, error) {
	if in.StatusID != nil {
		st, err := repo.StatusByID(ctx, *in.StatusID)
		if err != nil {
			return 0, err
		}
		return st.ID, nil
	}

	name := StatusDraft
	if in.Finished {
		name = StatusFinished
	}
	st, err := repo.StatusByName(ctx, name)
	if err != nil {
		return 0, err
	}
	return st.ID, nil
}

func applyContact(o *Order, in Input) {
	o.FirstName = utils.TrimPtr(&in.FirstName)
	o.LastName = utils.TrimPtr(&in.LastName)
	o.Phone = utils.TrimPtr(in.Phone)
	o.Address = utils.TrimPtr(in.Address)
	o.Notes = in.Notes
}

func normalizeInput(in Input, requireItems bool) (Input, error) {
	if requireItems && len(in.Items) == 0 {
		return in, ErrNoItems
	}
	in.Num = utils.TrimPtr(in.Num)
	in.Notes = utils.TrimPtr(in.Notes)
	if err := utils.ValidateStruct(in); err != nil {
		return in, err
	}
	return in, nil
}

func sortedInputs(items []LineInput) []LineInput {
	out := append([]LineInput(nil), items...)
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func sortedLines(lines []Line) []Line {
	out := append([]Line(nil), lines...)
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}
