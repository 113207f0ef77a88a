package repository

import (
	"context"

	"storefront/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationGormRepository struct {
	db *gorm.DB
}

func NewNotificationGormRepository(db *gorm.DB) *NotificationGormRepository {
	return &NotificationGormRepository{db: db}
}

// IsSent は送信済みの記録だけを見る。skipped/dead_lettered は再処理してよい
func (r *NotificationGormRepository) IsSent(ctx context.Context, orderID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.OrderNotification{}).
		Where("order_id = ? AND outcome = ?", orderID, model.NotificationSent).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Record は注文ごとの結果を upsert する。sent は上書きしない
func (r *NotificationGormRepository) Record(ctx context.Context, n model.OrderNotification) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "order_id"}},
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Neq{Column: clause.Column{Table: "order_notifications", Name: "outcome"}, Value: model.NotificationSent},
			}},
			DoUpdates: clause.AssignmentColumns([]string{"outcome", "recipient", "reason", "recorded_at"}),
		}).
		Create(&n).Error
}
