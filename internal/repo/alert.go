package repo

import (
	"context"
	"time"

	"github.com/KNICEX/market-sentry/internal/entity"
	"gorm.io/gorm"
)

type AlertRepo interface {
	Create(ctx context.Context, alert entity.Alert) (int64, error)
	FindSince(ctx context.Context, since time.Time) ([]entity.Alert, error)
	FindBySymbol(ctx context.Context, base, quote string) ([]entity.Alert, error)
}

type alertRepo struct {
	db *gorm.DB
}

func NewAlertRepo(db *gorm.DB) AlertRepo {
	return &alertRepo{
		db: db,
	}
}

func (r *alertRepo) Create(ctx context.Context, alert entity.Alert) (int64, error) {
	err := r.db.WithContext(ctx).Create(&alert).Error
	if err != nil {
		return 0, err
	}
	return alert.Id, nil
}

func (r *alertRepo) FindSince(ctx context.Context, since time.Time) ([]entity.Alert, error) {
	var alerts []entity.Alert
	err := r.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at desc").
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *alertRepo) FindBySymbol(ctx context.Context, base, quote string) ([]entity.Alert, error) {
	var alerts []entity.Alert
	err := r.db.WithContext(ctx).
		Where("base_symbol = ? AND quote_symbol = ?", base, quote).
		Order("created_at desc").
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}
