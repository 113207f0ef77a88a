package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文明細。商品名・画像・カテゴリ・価格は注文時点のスナップショット。
// 商品が削除されても product_id が NULL になるだけで明細は残る。
type OrderItem struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID      int64           `gorm:"not null;index" json:"orderId"`
	ProductID    *int64          `gorm:"index" json:"productId"`
	Quantity     int64           `gorm:"not null" json:"quantity"`
	ProductName  string          `gorm:"type:varchar(255);not null" json:"productName"`
	ProductImage string          `gorm:"type:varchar(512)" json:"productImage"`
	CategoryName string          `gorm:"type:varchar(255)" json:"categoryName"`
	ProductPrice decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"productPrice"`
	CreatedAt    time.Time       `gorm:"not null;autoCreateTime" json:"createdAt"`
}

// Subtotal は単価×数量
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.ProductPrice.Mul(decimal.NewFromInt(i.Quantity))
}
