package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

// 注文まわりの固定エラー。errors.Is で判定できる
var (
	ErrEmptyCart         = &HTTPError{Status: http.StatusBadRequest, Message: "cart is empty"}
	ErrProductsGone      = &HTTPError{Status: http.StatusBadRequest, Message: "some products in your cart no longer exist"}
	ErrNoShippingAddress = &HTTPError{Status: http.StatusBadRequest, Message: "shipping address is required"}
	ErrLockTimeout       = &HTTPError{Status: http.StatusServiceUnavailable, Message: "inventory is busy, please retry"}
	ErrNegativeStock     = &HTTPError{Status: http.StatusInternalServerError, Message: "inventory invariant violated"}
)

// 在庫不足。どの商品が何個足りないかを持つ
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Available   int64
	Requested   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %q: only %d left, %d requested", e.ProductName, e.Available, e.Requested)
}

// 非公開または在庫切れ
type ProductUnavailableError struct {
	ProductID   int64
	ProductName string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %q is not available", e.ProductName)
}

// AsHTTPError は業務エラーをステータス付きに揃える
func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he, true
	}

	var ise *InsufficientStockError
	if errors.As(err, &ise) {
		return &HTTPError{Status: http.StatusBadRequest, Message: ise.Error()}, true
	}

	var pue *ProductUnavailableError
	if errors.As(err, &pue) {
		return &HTTPError{Status: http.StatusBadRequest, Message: pue.Error()}, true
	}
	return nil, false
}
