package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 住所(Address)を取得する窓口
type AddressRepository interface {
	//ユーザーのデフォルト住所。無ければ ErrNotFound
	FindDefaultByUserID(ctx context.Context, userID int64) (model.Address, error)
}

// 住所帳の読み書き（/addresses 用）
type AddressBookRepository interface {
	AddressRepository

	ListByUserID(ctx context.Context, userID int64) ([]model.Address, error)
	FindByID(ctx context.Context, addressID int64) (model.Address, error)
	Create(ctx context.Context, a model.Address) (model.Address, error)
	Update(ctx context.Context, a model.Address) error
	Delete(ctx context.Context, addressID int64) error

	// user の住所のうち addressID だけを default にする
	SetDefault(ctx context.Context, userID int64, addressID int64) error
}
