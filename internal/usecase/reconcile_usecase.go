package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// ReconcileUsecase は確定済みなのに確認メール記録が無い注文のイベントを再送する。
// 重複配信は worker 側の送信済みチェックで吸収される
type ReconcileUsecase struct {
	orders    repo.OrderRepository
	publisher OrderEventPublisher
	log       *zap.Logger
	now       func() time.Time
}

func NewReconcileUsecase(orders repo.OrderRepository, publisher OrderEventPublisher, log *zap.Logger) *ReconcileUsecase {
	return &ReconcileUsecase{orders: orders, publisher: publisher, log: log, now: time.Now}
}

// Reconcile は olderThan より前の未通知注文を最大 limit 件再送し、再送できた件数を返す
func (u *ReconcileUsecase) Reconcile(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	if limit < 1 {
		return 0, fmt.Errorf("limit must be >= 1")
	}

	orders, err := u.orders.ListUnnotified(ctx, u.now().Add(-olderThan), limit)
	if err != nil {
		return 0, fmt.Errorf("list unnotified orders: %w", err)
	}

	var errs []error
	sent := 0
	for _, o := range orders {
		if err := u.publisher.PublishOrderCreated(ctx, model.NewOrderCreatedEvent(o)); err != nil {
			u.log.Error("republish failed", zap.Int64("order_id", o.ID), zap.Error(err))
			errs = append(errs, fmt.Errorf("order %d: %w", o.ID, err))
			continue
		}
		sent++
		u.log.Info("order_created republished", zap.Int64("order_id", o.ID))
	}
	return sent, errors.Join(errs...)
}
