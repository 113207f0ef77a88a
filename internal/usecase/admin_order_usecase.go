package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// AdminOrderUsecase は管理画面の注文操作です。
// 確認メールの送信状況には関与しません。
type AdminOrderUsecase struct {
	tx     repo.TransactionManager
	orders repo.AdminOrderRepository
	log    *zap.Logger
}

func NewAdminOrderUsecase(tx repo.TransactionManager, orders repo.AdminOrderRepository, log *zap.Logger) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, orders: orders, log: log}
}

type AdminOrderListInput struct {
	Status     string
	UnreadOnly bool
	Page       int
	Limit      int
}

// 注文一覧（新しい順）
func (u *AdminOrderUsecase) List(ctx context.Context, in AdminOrderListInput) (OrderListOutput, error) {
	// page/limitの最低限チェック
	if in.Page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	status := model.OrderStatus(strings.TrimSpace(in.Status))
	if status != "" && !status.Valid() {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	orders, total, err := u.orders.ListAdmin(ctx, repo.AdminOrderFilter{
		Status:     status,
		UnreadOnly: in.UnreadOnly,
		Page:       in.Page,
		Limit:      in.Limit,
	})
	if err != nil {
		u.log.Error("list admin orders failed", zap.Error(err))
		return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return OrderListOutput{Items: orders, Page: in.Page, Limit: in.Limit, Total: total}, nil
}

// MarkRead は新着通知を既読にする
func (u *AdminOrderUsecase) MarkRead(ctx context.Context, orderID int64) error {
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	err := u.orders.MarkRead(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		u.log.Error("mark order read failed", zap.Int64("order_id", orderID), zap.Error(err))
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// UpdateStatus はステータスを進める。cancelled なら同じトランザクションで在庫を戻す
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, orderID int64, status string) (model.Order, error) {
	if orderID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	next := model.OrderStatus(strings.TrimSpace(status))
	if !next.Valid() {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var updated model.Order
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.OrderStatuses().LockByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return fmt.Errorf("lock order: %w", err)
		}

		// すでに同じなら何もしない（200）
		if o.Status == next {
			updated = o
			return nil
		}
		if !o.Status.CanTransitionTo(next) {
			return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("cannot change %s order to %s", o.Status, next))
		}

		if next == model.OrderStatusCancelled {
			if err := restock(ctx, r, orderID); err != nil {
				return err
			}
		}

		if err := r.OrderStatuses().UpdateStatus(ctx, orderID, next); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		o.Status = next
		updated = o
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return model.Order{}, err
		}
		if errors.Is(err, repo.ErrLockTimeout) {
			u.log.Warn("order status lock wait timed out", zap.Int64("order_id", orderID), zap.Error(err))
			return model.Order{}, ErrLockTimeout
		}
		u.log.Error("update order status failed", zap.Int64("order_id", orderID), zap.Error(err))
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.log.Info("order status changed", zap.Int64("order_id", orderID), zap.String("status", string(next)))
	return updated, nil
}

// restock は明細の数量を商品に戻す。削除済みの商品は飛ばす
func restock(ctx context.Context, r repo.TxRepos, orderID int64) error {
	items, err := r.OrderItems().ListByOrderID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}

	qty := map[int64]int64{}
	var ids []int64
	for _, it := range items {
		if it.ProductID == nil {
			continue
		}
		if _, ok := qty[*it.ProductID]; !ok {
			ids = append(ids, *it.ProductID)
		}
		qty[*it.ProductID] += it.Quantity
	}
	if len(ids) == 0 {
		return nil
	}

	products, err := r.Products().LockByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("lock products: %w", err)
	}
	for _, p := range products {
		if err := p.IncreaseStock(qty[p.ID]); err != nil {
			return err
		}
		if err := r.Products().SaveStock(ctx, p); err != nil {
			return fmt.Errorf("save stock: %w", err)
		}
	}
	return nil
}
