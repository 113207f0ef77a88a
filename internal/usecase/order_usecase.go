package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// 注文作成イベントの送り先（kafka）
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, evt model.OrderCreatedEvent) error
}

// 管理画面への新規注文通知
type OrderNotifier interface {
	OrderCreated(ctx context.Context, notice model.OrderCreatedNotice) error
}

type OrderUsecase struct {
	tx        repo.TransactionManager
	orders    repo.OrderRepository
	items     repo.OrderItemRepository
	carts     repo.CartStore
	publisher OrderEventPublisher
	notifier  OrderNotifier
	log       *zap.Logger

	// commit 後の後処理にかける上限時間
	postCommitTimeout time.Duration
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	items repo.OrderItemRepository,
	carts repo.CartStore,
	publisher OrderEventPublisher,
	notifier OrderNotifier,
	log *zap.Logger,
	postCommitTimeout time.Duration,
) *OrderUsecase {
	return &OrderUsecase{
		tx:                tx,
		orders:            orders,
		items:             items,
		carts:             carts,
		publisher:         publisher,
		notifier:          notifier,
		log:               log,
		postCommitTimeout: postCommitTimeout,
	}
}

type CreateOrderInput struct {
	PaymentMethod string
	Note          string
	// 空または不完全ならデフォルト住所を使う
	ShippingAddress *model.ShippingAddress
}

type OrderListOutput struct {
	Items []model.Order `json:"items"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Total int64         `json:"total"`
}

// CreateOrder はカートの中身で注文を確定する。
// 在庫チェック・減算・注文作成は1トランザクションで行い、
// キュー送信・カート削除・通知は commit 後にベストエフォートで行う。
func (u *OrderUsecase) CreateOrder(ctx context.Context, userID int64, in CreateOrderInput) (model.Order, error) {
	if userID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" || len(method) > 50 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid payment method")
	}

	// 1. カートのスナップショット
	cart, err := u.carts.Get(ctx, userID)
	if err != nil {
		u.log.Error("read cart failed", zap.Int64("user_id", userID), zap.Error(err))
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "cart store error")
	}
	if len(cart) == 0 {
		return model.Order{}, ErrEmptyCart
	}

	// ロック順を揃えるため昇順
	ids := make([]int64, 0, len(cart))
	for id := range cart {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var order model.Order
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 2. 行ロック
		products, err := r.Products().LockByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("lock products: %w", err)
		}

		// 3. 削除された商品がある
		if len(products) != len(ids) {
			return ErrProductsGone
		}

		categoryNames, err := lookupCategoryNames(ctx, r.Categories(), products)
		if err != nil {
			return err
		}

		// 4-5. 検証・合計・減算。ここでスナップショットも作る
		total := model.ShippingFee
		items := make([]model.OrderItem, 0, len(products))
		for i := range products {
			p := &products[i]
			qty := cart[p.ID].Quantity

			if p.Status == model.ProductStatusInactive {
				return &ProductUnavailableError{ProductID: p.ID, ProductName: p.Name}
			}
			available := p.Quantity
			if p.Status == model.ProductStatusOutOfStock {
				available = 0
			}
			if available < qty {
				return &InsufficientStockError{
					ProductID:   p.ID,
					ProductName: p.Name,
					Available:   available,
					Requested:   qty,
				}
			}

			total = total.Add(p.Price.Mul(decimal.NewFromInt(qty)))

			productID := p.ID
			item := model.OrderItem{
				ProductID:    &productID,
				Quantity:     qty,
				ProductName:  p.Name,
				ProductImage: p.ImageURL,
				ProductPrice: p.Price,
			}
			if p.CategoryID != nil {
				item.CategoryName = categoryNames[*p.CategoryID]
			}
			items = append(items, item)

			if err := p.DecreaseStock(qty); err != nil {
				return fmt.Errorf("product %d: %w", p.ID, err)
			}
			if err := r.Products().SaveStock(ctx, *p); err != nil {
				return fmt.Errorf("save stock %d: %w", p.ID, err)
			}
		}

		// 6. 配送先
		ship, err := resolveShipping(ctx, r.Addresses(), userID, in.ShippingAddress)
		if err != nil {
			return err
		}

		// 7. 注文と明細
		o := model.Order{
			UserID:        userID,
			Status:        model.OrderStatusPending,
			TotalPrice:    total,
			PaymentMethod: method,
			Note:          strings.TrimSpace(in.Note),
		}
		o.SetShipping(ship)

		created, err := r.Orders().Create(ctx, o)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := r.OrderItems().CreateBulk(ctx, created.ID, items); err != nil {
			return fmt.Errorf("create order items: %w", err)
		}
		created.Items = items
		order = created
		return nil
	})
	if err != nil {
		return model.Order{}, u.txError(userID, err)
	}

	// 9. commit 済み。ここから先の失敗は注文を取り消さない
	u.afterCommit(ctx, order)

	return order, nil
}

// txError はトランザクションのエラーを呼び出し側向けに揃える
func (u *OrderUsecase) txError(userID int64, err error) error {
	if _, ok := AsHTTPError(err); ok {
		return err
	}
	if errors.Is(err, repo.ErrLockTimeout) {
		u.log.Warn("checkout lock wait timed out", zap.Int64("user_id", userID), zap.Error(err))
		return ErrLockTimeout
	}
	if errors.Is(err, model.ErrNegativeStock) {
		u.log.Error("stock would go negative", zap.Int64("user_id", userID), zap.Error(err))
		return ErrNegativeStock
	}
	u.log.Error("checkout transaction failed", zap.Int64("user_id", userID), zap.Error(err))
	return NewHTTPError(http.StatusInternalServerError, "db error")
}

// afterCommit はキュー送信・カート削除・管理通知を並行に行う。
// どれが失敗してもログだけ残して呼び出し元には返さない
func (u *OrderUsecase) afterCommit(ctx context.Context, order model.Order) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.postCommitTimeout)
	defer cancel()

	log := u.log.With(zap.Int64("order_id", order.ID), zap.Int64("user_id", order.UserID))

	var g errgroup.Group
	g.Go(func() error {
		if err := u.publisher.PublishOrderCreated(ctx, model.NewOrderCreatedEvent(order)); err != nil {
			// 確定済みだがメールが出ない。reconcile で拾う
			log.Error("publish order_created failed", zap.Bool("reconcile", true), zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		if err := u.carts.Clear(ctx, order.UserID); err != nil {
			log.Warn("clear cart failed", zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		if err := u.notifier.OrderCreated(ctx, model.NewOrderCreatedNotice(order)); err != nil {
			log.Warn("notify admin failed", zap.Error(err))
		}
		return nil
	})
	_ = g.Wait()
}

func lookupCategoryNames(ctx context.Context, categories repo.CategoryRepository, products []model.Product) (map[int64]string, error) {
	seen := map[int64]struct{}{}
	var ids []int64
	for _, p := range products {
		if p.CategoryID == nil {
			continue
		}
		if _, ok := seen[*p.CategoryID]; ok {
			continue
		}
		seen[*p.CategoryID] = struct{}{}
		ids = append(ids, *p.CategoryID)
	}

	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	cs, err := categories.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("find categories: %w", err)
	}
	for _, c := range cs {
		names[c.ID] = c.Name
	}
	return names, nil
}

func resolveShipping(ctx context.Context, addresses repo.AddressRepository, userID int64, given *model.ShippingAddress) (model.ShippingAddress, error) {
	if given != nil && given.IsComplete() {
		return trimShipping(*given), nil
	}
	a, err := addresses.FindDefaultByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.ShippingAddress{}, ErrNoShippingAddress
	}
	if err != nil {
		return model.ShippingAddress{}, fmt.Errorf("find default address: %w", err)
	}
	ship := a.ToShipping()
	if !ship.IsComplete() {
		return model.ShippingAddress{}, ErrNoShippingAddress
	}
	return ship, nil
}

func trimShipping(a model.ShippingAddress) model.ShippingAddress {
	return model.ShippingAddress{
		FullName: strings.TrimSpace(a.FullName),
		Phone:    strings.TrimSpace(a.Phone),
		Street:   strings.TrimSpace(a.Street),
		Ward:     strings.TrimSpace(a.Ward),
		District: strings.TrimSpace(a.District),
		Province: strings.TrimSpace(a.Province),
	}
}

// ListMyOrders は自分の注文一覧（新しい順）
func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	orders, total, err := u.orders.ListByUserID(ctx, userID, page, limit)
	if err != nil {
		return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return OrderListOutput{Items: orders, Page: page, Limit: limit, Total: total}, nil
}

// GetMyOrder は明細付きで1件返す。他人の注文は見つからない扱い
func (u *OrderUsecase) GetMyOrder(ctx context.Context, userID, orderID int64) (model.Order, error) {
	if userID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if o.UserID != userID {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "order not found")
	}

	items, err := u.items.ListByOrderID(ctx, orderID)
	if err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	o.Items = items
	return o, nil
}
