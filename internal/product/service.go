package product

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/warimas/backoffice/internal/apperr"
	"github.com/warimas/backoffice/internal/audit"
	"github.com/warimas/backoffice/internal/db"
	"github.com/warimas/backoffice/internal/logger"
	"github.com/warimas/backoffice/internal/utils"
)

type Service interface {
	Create(ctx context.Context, teamID int64, in Input) (*Product, error)
	Update(ctx context.Context, teamID, id int64, in Input) (*Product, error)
	Delete(ctx context.Context, teamID, id int64) error
	AdjustStock(ctx context.Context, teamID, id int64, adj StockAdjustment) (*Product, error)
	Get(ctx context.Context, teamID, id int64) (*Product, error)
	List(ctx context.Context, teamID int64, filter ListFilter) (*ListResult, error)
}

type service struct {
	db *sql.DB
}

func NewService(db *sql.DB) Service {
	return &service{db: db}
}

func (s *service) Create(ctx context.Context, teamID int64, in Input) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateProduct"),
	)

	in = normalize(in)
	if err := validate(in); err != nil {
		log.Warn("invalid product input", zap.Error(err))
		return nil, err
	}

	var created *Product
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := NewRepository(tx)
		if err := checkCategory(ctx, repo, teamID, in.CategoryID); err != nil {
			return err
		}

		p, err := repo.Create(ctx, teamID, in)
		if err != nil {
			return err
		}
		created = p

		return audit.NewRepository(tx).Record(ctx, teamID,
			audit.Subject{Kind: audit.KindProduct, ID: p.ID}, audit.EventCreated, nil, p)
	})
	if err != nil {
		log.Error("failed to create product", zap.Error(err))
		return nil, err
	}

	log.Info("product created", zap.Int64("product_id", created.ID))
	return created, nil
}

func (s *service) Update(ctx context.Context, teamID, id int64, in Input) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateProduct"),
		zap.Int64("product_id", id),
	)

	in = normalize(in)
	if err := validate(in); err != nil {
		log.Warn("invalid product input", zap.Error(err))
		return nil, err
	}

	var updated *Product
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := NewRepository(tx)

		before, err := repo.FindByID(ctx, teamID, id)
		if err != nil {
			return err
		}
		if err := checkCategory(ctx, repo, teamID, in.CategoryID); err != nil {
			return err
		}

		after, err := repo.Update(ctx, teamID, id, in)
		if err != nil {
			return err
		}
		updated = after

		return audit.NewRepository(tx).Record(ctx, teamID,
			audit.Subject{Kind: audit.KindProduct, ID: id}, audit.EventUpdated, before, after)
	})
	if err != nil {
		log.Error("failed to update product", zap.Error(err))
		return nil, err
	}

	log.Info("product updated")
	return updated, nil
}

func (s *service) Delete(ctx context.Context, teamID, id int64) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "DeleteProduct"),
		zap.Int64("product_id", id),
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
			audit.Subject{Kind: audit.KindProduct, ID: id}, audit.EventDeleted, before, nil)
	})
	if err != nil {
		log.Error("failed to delete product", zap.Error(err))
		return err
	}

	log.Info("product deleted")
	return nil
}

// AdjustStock adds adj.Delta to the on-hand quantity under the row lock, so it
// composes with concurrent order reconciliation instead of overwriting it.
func (s *service) AdjustStock(ctx context.Context, teamID, id int64, adj StockAdjustment) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "AdjustStock"),
		zap.Int64("product_id", id),
		zap.Int("delta", adj.Delta),
	)

	if err := utils.ValidateStruct(adj); err != nil {
		log.Warn("invalid stock adjustment", zap.Error(err))
		return nil, err
	}

	var adjusted *Product
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := NewRepository(tx)

		before, err := repo.FindForUpdate(ctx, teamID, id)
		if err != nil {
			return err
		}
		if before.DeletedAt != nil {
			return ErrProductNotFound
		}
		if before.Quantity+adj.Delta < 0 {
			return apperr.Invalid(fmt.Sprintf("stock of product %d would drop below zero (on hand %d)", id, before.Quantity))
		}

		if adj.Delta > 0 {
			err = repo.IncrementQuantity(ctx, teamID, id, adj.Delta)
		} else {
			err = repo.DecrementQuantity(ctx, teamID, id, -adj.Delta)
		}
		if err != nil {
			return err
		}

		after, err := repo.FindByID(ctx, teamID, id)
		if err != nil {
			return err
		}
		adjusted = after

		return audit.NewRepository(tx).Record(ctx, teamID,
			audit.Subject{Kind: audit.KindProduct, ID: id}, audit.EventUpdated, before, after)
	})
	if err != nil {
		log.Error("failed to adjust stock", zap.Error(err))
		return nil, err
	}

	log.Info("stock adjusted", zap.Int("quantity", adjusted.Quantity))
	return adjusted, nil
}

func (s *service) Get(ctx context.Context, teamID, id int64) (*Product, error) {
	return NewRepository(s.db).FindByID(ctx, teamID, id)
}

func (s *service) List(ctx context.Context, teamID int64, filter ListFilter) (*ListResult, error) {
	filter.Page, filter.Limit, _ = utils.Pagination(filter.Page, filter.Limit)

	items, total, err := NewRepository(s.db).List(ctx, teamID, filter)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to list products", zap.Error(err))
		return nil, err
	}

	return &ListResult{
		Items: items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func normalize(in Input) Input {
	in.Name = strings.TrimSpace(in.Name)
	in.SKU = utils.TrimPtr(in.SKU)
	in.Description = utils.TrimPtr(in.Description)
	return in
}

func validate(in Input) error {
	return utils.ValidateStruct(in)
}

func checkCategory(ctx context.Context, repo Repository, teamID int64, categoryID *int64) error {
	if categoryID == nil {
		return nil
	}
	ok, err := repo.CategoryExists(ctx, teamID, *categoryID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCategoryNotFound
	}
	return nil
}
