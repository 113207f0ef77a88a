package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	repo "storefront/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// lock_not_available
const pgLockNotAvailable = "55P03"

type txReposGorm struct {
	orders     repo.OrderWriter
	statuses   repo.OrderStatusWriter
	orderItems repo.OrderItemRepository
	products   repo.ProductStockRepository
	categories repo.CategoryRepository
	addresses  repo.AddressRepository
}

func (r *txReposGorm) Orders() repo.OrderWriter              { return r.orders }
func (r *txReposGorm) OrderStatuses() repo.OrderStatusWriter { return r.statuses }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository  { return r.orderItems }
func (r *txReposGorm) Products() repo.ProductStockRepository { return r.products }
func (r *txReposGorm) Categories() repo.CategoryRepository   { return r.categories }
func (r *txReposGorm) Addresses() repo.AddressRepository     { return r.addresses }

type TxManagerGorm struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// lockTimeout が0なら待ち上限を設定しない
func NewTxManagerGorm(db *gorm.DB, lockTimeout time.Duration) *TxManagerGorm {
	return &TxManagerGorm{db: db, lockTimeout: lockTimeout}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	err := tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// SET はバインド変数を受け付けないので値を埋め込む
		if tm.lockTimeout > 0 {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", tm.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("set lock_timeout: %w", err)
			}
		}

		//repoはtxを持ったDBで作り直す
		orders := NewOrderGormRepository(tx)
		r := &txReposGorm{
			orders:     orders,
			statuses:   orders,
			orderItems: NewOrderItemGormRepository(tx),
			products:   NewProductGormRepository(tx),
			categories: NewCategoryGormRepository(tx),
			addresses:  NewAddressGormRepository(tx),
		}
		return fn(r)
	})
	if isLockTimeout(err) {
		return fmt.Errorf("%w: %v", repo.ErrLockTimeout, err)
	}
	return err
}

func isLockTimeout(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
