package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo は管理画面からの変更を許すか。delivered と cancelled は終端
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusProcessing || next == OrderStatusCancelled
	case OrderStatusProcessing:
		return next == OrderStatusShipped || next == OrderStatusCancelled
	case OrderStatusShipped:
		return next == OrderStatusDelivered
	}
	return false
}

// 送料は固定
var ShippingFee = decimal.NewFromInt(30000)

type Order struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64           `gorm:"not null;index" json:"userId"`
	Customer   *User           `gorm:"foreignKey:UserID" json:"customer,omitempty"`
	Status     OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"totalPrice"`

	// 配送先は注文時点の値をコピーして持つ
	ShippingName     string `gorm:"type:varchar(255);not null" json:"shippingName"`
	ShippingPhone    string `gorm:"type:varchar(30);not null" json:"shippingPhone"`
	ShippingStreet   string `gorm:"type:varchar(255);not null" json:"shippingStreet"`
	ShippingWard     string `gorm:"type:varchar(255);not null" json:"shippingWard"`
	ShippingDistrict string `gorm:"type:varchar(255);not null" json:"shippingDistrict"`
	ShippingProvince string `gorm:"type:varchar(255);not null" json:"shippingProvince"`

	PaymentMethod string `gorm:"type:varchar(50);not null" json:"paymentMethod"`
	Note          string `gorm:"type:text" json:"note"`
	IsRead        bool   `gorm:"not null;default:false" json:"isRead"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

// SetShipping は配送先をコピーする
func (o *Order) SetShipping(a ShippingAddress) {
	o.ShippingName = a.FullName
	o.ShippingPhone = a.Phone
	o.ShippingStreet = a.Street
	o.ShippingWard = a.Ward
	o.ShippingDistrict = a.District
	o.ShippingProvince = a.Province
}

// ShippingLine はメール等に出す一行表記
func (o Order) ShippingLine() string {
	return o.ShippingStreet + ", " + o.ShippingWard + ", " + o.ShippingDistrict + ", " + o.ShippingProvince
}
