package server

import (
	"storefront/internal/handler"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Health       *handler.HealthHandler
	Cart         *handler.CartHandler
	Order        *handler.OrderHandler
	Address      *handler.AddressHandler
	AdminProduct *handler.AdminProductHandler
	AdminOrder   *handler.AdminOrderHandler
}

// RegisterRoutes は /healthz 以外に auth を掛ける
func RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc, h Handlers) {
	h.Health.RegisterRoutes(e)
	h.Cart.RegisterRoutes(e, auth)
	h.Order.RegisterRoutes(e, auth)
	h.Address.RegisterRoutes(e, auth)
	h.AdminProduct.RegisterRoutes(e, auth)
	h.AdminOrder.RegisterRoutes(e, auth)
}
