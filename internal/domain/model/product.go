package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductStatusActive     ProductStatus = "active"
	ProductStatusInactive   ProductStatus = "inactive"
	ProductStatusOutOfStock ProductStatus = "out_of_stock"
)

// 在庫がマイナスになる減算は行わない
var ErrNegativeStock = errors.New("stock would become negative")

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductStatusActive, ProductStatusInactive, ProductStatusOutOfStock:
		return true
	}
	return false
}

type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	ImageURL    string          `gorm:"type:varchar(512)" json:"imageUrl"`
	CategoryID  *int64          `gorm:"index" json:"categoryId"`
	Category    *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Status      ProductStatus   `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	Price       decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"price"`
	Quantity    int64           `gorm:"not null;default:0" json:"quantity"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

// Purchasable は注文できる状態か（active かつ在庫あり）
func (p Product) Purchasable() bool {
	return p.Status == ProductStatusActive && p.Quantity > 0
}

// DecreaseStock は在庫を減らし、ちょうど0になったら out_of_stock にする
func (p *Product) DecreaseStock(qty int64) error {
	if qty <= 0 || p.Quantity < qty {
		return ErrNegativeStock
	}
	p.Quantity -= qty
	if p.Quantity == 0 {
		p.Status = ProductStatusOutOfStock
	}
	return nil
}

// IncreaseStock は注文取消しで在庫を戻す。out_of_stock だったものは active に戻す
func (p *Product) IncreaseStock(qty int64) error {
	if qty <= 0 {
		return ErrNegativeStock
	}
	p.Quantity += qty
	if p.Status == ProductStatusOutOfStock {
		p.Status = ProductStatusActive
	}
	return nil
}
