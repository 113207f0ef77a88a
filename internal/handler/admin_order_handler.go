package handler

import (
	"context"
	"net/http"
	"strconv"

	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderService interface {
	List(ctx context.Context, in usecase.AdminOrderListInput) (usecase.OrderListOutput, error)
	MarkRead(ctx context.Context, orderID int64) error
	UpdateStatus(ctx context.Context, orderID int64, status string) (model.Order, error)
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

// /admin/orders
type AdminOrderHandler struct {
	uc AdminOrderService
}

func NewAdminOrderHandler(uc AdminOrderService) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	admin := e.Group("/admin")
	admin.Use(auth)
	admin.Use(middleware.AdminRoleGuard())

	admin.GET("/orders", h.list)
	admin.PATCH("/orders/:id/read", h.markRead)
	admin.PUT("/orders/:id/status", h.updateStatus)
}

// ?status=pending&unread=true&page=1&limit=50
func (h *AdminOrderHandler) list(c echo.Context) error {
	unread := false
	if v := c.QueryParam("unread"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fail(c, http.StatusBadRequest, "invalid unread")
		}
		unread = b
	}

	out, err := h.uc.List(c.Request().Context(), usecase.AdminOrderListInput{
		Status:     c.QueryParam("status"),
		UnreadOnly: unread,
		Page:       queryInt(c, "page", 1),
		Limit:      queryInt(c, "limit", 50),
	})
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, "", out)
}

func (h *AdminOrderHandler) markRead(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	if err := h.uc.MarkRead(c.Request().Context(), orderID); err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, "order marked as read", nil)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	o, err := h.uc.UpdateStatus(c.Request().Context(), orderID, req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return respond(c, http.StatusOK, "order status updated", map[string]any{"order": o})
}
