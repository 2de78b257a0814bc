package category

import (
	"context"
	"database/sql"
	"strings"

	"github.com/warimas/backoffice/internal/audit"
	"github.com/warimas/backoffice/internal/db"
	"github.com/warimas/backoffice/internal/logger"
	"github.com/warimas/backoffice/internal/utils"

	"go.uber.org/zap"
)

// Service defines the business logic for product categories.
type Service interface {
	List(ctx context.Context, teamID int64, filter ListFilter) (*ListResult, error)
	Create(ctx context.Context, teamID int64, name string) (*Category, error)
	Rename(ctx context.Context, teamID, id int64, name string) (*Category, error)
	Delete(ctx context.Context, teamID, id int64) error
}

type service struct {
	db *sql.DB
}

func NewService(db *sql.DB) Service {
	return &service{db: db}
}

func (s *service) List(ctx context.Context, teamID int64, filter ListFilter) (*ListResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ListCategories"),
	)

	filter.Page, filter.Limit, _ = utils.Pagination(filter.Page, filter.Limit)

	items, total, err := NewRepository(s.db).List(ctx, teamID, filter)
	if err != nil {
		log.Error("failed to get categories", zap.Error(err))
		return nil, err
	}

	log.Info("ListCategories success", zap.Int("count", len(items)))
	return &ListResult{Items: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *service) Create(ctx context.Context, teamID int64, name string) (*Category, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateCategory"),
		zap.String("name", name),
	)

	name, err := validName(name)
	if err != nil {
		return nil, err
	}

	var created *Category
	err = db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		c, err := NewRepository(tx).Create(ctx, teamID, name)
		if err != nil {
			return err
		}
		created = c
		return audit.NewRepository(tx).Record(ctx, teamID,
			audit.Subject{Kind: audit.KindCategory, ID: c.ID}, audit.EventCreated, nil, c)
	})
	if err != nil {
		log.Error("failed to add category", zap.Error(err))
		return nil, err
	}

	log.Info("CreateCategory success", zap.Int64("category_id", created.ID))
	return created, nil
}

func (s *service) Rename(ctx context.Context, teamID, id int64, name string) (*Category, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "RenameCategory"),
		zap.Int64("category_id", id),
	)

	name, err := validName(name)
	if err != nil {
		return nil, err
	}

	var renamed *Category
	err = db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := NewRepository(tx)
		before, err := repo.FindByID(ctx, teamID, id)
		if err != nil {
			return err
		}
		after, err := repo.Rename(ctx, teamID, id, name)
		if err != nil {
			return err
		}
		renamed = after
		return audit.NewRepository(tx).Record(ctx, teamID,
			audit.Subject{Kind: audit.KindCategory, ID: id}, audit.EventUpdated, before, after)
	})
	if err != nil {
		log.Error("failed to rename category", zap.Error(err))
		return nil, err
	}

	return renamed, nil
}

func (s *service) Delete(ctx context.Context, teamID, id int64) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "DeleteCategory"),
		zap.Int64("category_id", id),
	)

	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := NewRepository(tx)
		before, err := repo.FindByID(ctx, teamID, id)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, teamID, id); err != nil {
			return err
		}
		return audit.NewRepository(tx).Record(ctx, teamID,
			audit.Subject{Kind: audit.KindCategory, ID: id}, audit.EventDeleted, before, nil)
	})
	if err != nil {
		log.Error("failed to delete category", zap.Error(err))
		return err
	}
	return nil
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := utils.ValidateVar("name", name, "min=2,max=255"); err != nil {
		return "", err
	}
	return name, nil
}
