package repository

import (
	"context"
	"errors"
)

// 行ロック待ちが上限を超えた
var ErrLockTimeout = errors.New("lock wait timeout")

// トランザクション内で使う約束
type TxRepos interface {
	Orders() OrderWriter
	OrderStatuses() OrderStatusWriter
	OrderItems() OrderItemRepository
	Products() ProductStockRepository
	Categories() CategoryRepository
	Addresses() AddressRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
// ロック待ちタイムアウトは ErrLockTimeout でラップして返す。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
