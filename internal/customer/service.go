package customer

import (
	"context"
	"database/sql"

	"github.com/warimas/backoffice/internal/audit"
	"github.com/warimas/backoffice/internal/db"
	"github.com/warimas/backoffice/internal/logger"
	"github.com/warimas/backoffice/internal/utils"

	"go.uber.org/zap"
)

type Service interface {
	Create(ctx context.Context, teamID int64, in Input) (*Customer, error)
	Update(ctx context.Context, teamID, id int64, in Input) (*Customer, error)
	Delete(ctx context.Context, teamID, id int64) error
	Get(ctx context.Context, teamID, id int64) (*Customer, error)
	List(ctx context.Context, teamID int64, filter ListFilter) (*ListResult, error)
}

type service struct {
	db *sql.DB
}

func NewService(db *sql.DB) Service {
	return &service{db: db}
}

func (s *service) Create(ctx context.Context, teamID int64, in Input) (*Customer, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateCustomer"),
	)

	in = Normalize(in)
	if err := Validate(in); err != nil {
		log.Warn("invalid customer input", zap.Error(err))
		return nil, err
	}

	var created *Customer
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		c, err := NewRepository(tx).Create(ctx, teamID, in)
		if err != nil {
			return err
		}
		created = c
		return audit.NewRepository(tx).Record(ctx, teamID,
			audit.Subject{Kind: audit.KindCustomer, ID: c.ID}, audit.EventCreated, nil, c)
	})
	if err != nil {
		log.Error("failed to create customer", zap.Error(err))
		return nil, err
	}

	log.Info("customer created", zap.Int64("customer_id", created.ID))
	return created, nil
}

func (s *service) Update(ctx context.Context, teamID, id int64, in Input) (*Customer, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateCustomer"),
		zap.Int64("customer_id", id),
	)

	in = Normalize(in)
	if err := Validate(in); err != nil {
		log.Warn("invalid customer input", zap.Error(err))
		return nil, err
	}

	var updated *Customer
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := NewRepository(tx)
		before, err := repo.FindByID(ctx, teamID, id)
		if err != nil {
			return err
		}
		after, err := repo.Update(ctx, teamID, id, in)
		if err != nil {
			return err
		}
		updated = after
		return audit.NewRepository(tx).Record(ctx, teamID,
			audit.Subject{Kind: audit.KindCustomer, ID: id}, audit.EventUpdated, before, after)
	})
	if err != nil {
		log.Error("failed to update customer", zap.Error(err))
		return nil, err
	}

	return updated, nil
}

func (s *service) Delete(ctx context.Context, teamID, id int64) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "DeleteCustomer"),
		zap.Int64("customer_id", id),
	)

	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := NewRepository(tx)
		before, err := repo.FindByID(ctx, teamID, id)
		if err != nil {
			return err
		}
		if err := repo.SoftDelete(ctx, teamID, id); err != nil {
			return err
		}
		return audit.NewRepository(tx).Record(ctx, teamID,
			audit.Subject{Kind: audit.KindCustomer, ID: id}, audit.EventDeleted, before, nil)
	})
	if err != nil {
		log.Error("failed to delete customer", zap.Error(err))
		return err
	}

	log.Info("customer deleted")
	return nil
}

func (s *service) Get(ctx context.Context, teamID, id int64) (*Customer, error) {
	return NewRepository(s.db).FindByID(ctx, teamID, id)
}

func (s *service) List(ctx context.Context, teamID int64, filter ListFilter) (*ListResult, error) {
	filter.Page, filter.Limit, _ = utils.Pagination(filter.Page, filter.Limit)

	items, total, err := NewRepository(s.db).List(ctx, teamID, filter)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to list customers", zap.Error(err))
		return nil, err
	}

	return &ListResult{Items: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}
