package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

type OrderWriter interface {
	Create(ctx context.Context, order model.Order) (model.Order, error)
}

// トランザクション内でのステータス変更
type OrderStatusWriter interface {
	// SELECT ... FOR UPDATE。無ければ ErrNotFound
	LockByID(ctx context.Context, orderID int64) (model.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
}

type OrderRepository interface {
	OrderWriter

	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	// 注文者と明細を含めて取得（worker用）
	FindWithDetails(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)

	// before より前に作られ、確認メールの結果記録が無い注文（reconcile用）。
	// skipped や dead_lettered の記録がある注文も返さない
	ListUnnotified(ctx context.Context, before time.Time, limit int) ([]model.Order, error)
}

// 管理画面の一覧条件。Status が空なら全件
type AdminOrderFilter struct {
	Status     model.OrderStatus
	UnreadOnly bool
	Page       int
	Limit      int
}

type AdminOrderRepository interface {
	ListAdmin(ctx context.Context, f AdminOrderFilter) ([]model.Order, int64, error)
	// 既読にする。無ければ ErrNotFound
	MarkRead(ctx context.Context, orderID int64) error
}

// 確認メールの処理結果
type NotificationRepository interface {
	// outcome が sent の記録があるか
	IsSent(ctx context.Context, orderID int64) (bool, error)
	// 結果を記録する。既存の sent は上書きしない
	Record(ctx context.Context, n model.OrderNotification) error
}
