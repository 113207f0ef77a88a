package model

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidCartEntry = errors.New("invalid cart entry")

// カートの1行。Redisハッシュの値としてJSONで保存する。
// 名前・価格・画像は追加時点の控え。表示も注文も商品の今の値を使う。
type CartEntry struct {
	ProductID int64           `json:"productId"`
	Quantity  int64           `json:"quantity"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"imageUrl"`
}

func (e CartEntry) Validate() error {
	if e.ProductID <= 0 || e.Quantity <= 0 {
		return ErrInvalidCartEntry
	}
	return nil
}
