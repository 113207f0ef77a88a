package model

import "time"

const EventOrderCreated = "order_created"

// キューに流す注文作成イベント
type OrderCreatedEvent struct {
	OrderID int64  `json:"orderId"`
	UserID  int64  `json:"userId"`
	Event   string `json:"event"`
}

func NewOrderCreatedEvent(o Order) OrderCreatedEvent {
	return OrderCreatedEvent{OrderID: o.ID, UserID: o.UserID, Event: EventOrderCreated}
}

// 管理画面向けのリアルタイム通知。金額は表示用の数値
type OrderCreatedNotice struct {
	OrderID      int64     `json:"orderId"`
	ShippingName string    `json:"shippingName"`
	TotalPrice   float64   `json:"totalPrice"`
	CreatedAt    time.Time `json:"createdAt"`
}

func NewOrderCreatedNotice(o Order) OrderCreatedNotice {
	total, _ := o.TotalPrice.Float64()
	return OrderCreatedNotice{
		OrderID:      o.ID,
		ShippingName: o.ShippingName,
		TotalPrice:   total,
		CreatedAt:    o.CreatedAt,
	}
}
