package handler

import (
	"context"
	"net/http"
	"strconv"

	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type AdminProductService interface {
	AdminCreateProduct(ctx context.Context, adminUserID int64, in usecase.AdminProductInput) (model.Product, error)
	AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in usecase.AdminProductInput) (model.Product, error)
	AdminDeleteProduct(ctx context.Context, adminUserID int64, productID int64) error
}

// price は数値でも文字列でも受ける
type ProductRequest struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	ImageURL    string              `json:"imageUrl"`
	CategoryID  *int64              `json:"categoryId"`
	Price       decimal.Decimal     `json:"price"`
	Quantity    int64               `json:"quantity"`
	Status      model.ProductStatus `json:"status"`
}

func (r ProductRequest) input() usecase.AdminProductInput {
	return usecase.AdminProductInput{
		Name:        r.Name,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		CategoryID:  r.CategoryID,
		Price:       r.Price,
		Quantity:    r.Quantity,
		Status:      r.Status,
	}
}

// /admin/products
type AdminProductHandler struct {
	uc AdminProductService
}

// DI
func NewAdminProductHandler(uc AdminProductService) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

// adminを登録
func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	admin := e.Group("/admin")

	admin.Use(auth)
	admin.Use(middleware.AdminRoleGuard())

	admin.POST("/products", h.createProduct)
	admin.PUT("/products/:id", h.updateProduct)
	admin.DELETE("/products/:id", h.deleteProduct)
}

func (h *AdminProductHandler) createProduct(c echo.Context) error {
	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	p, err := h.uc.AdminCreateProduct(c.Request().Context(), adminID, req.input())
	if err != nil {
		return writeError(c, err)
	}

	return respond(c, http.StatusCreated, "created", map[string]any{"product": p})
}

func (h *AdminProductHandler) updateProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	p, err := h.uc.AdminUpdateProduct(c.Request().Context(), adminID, id, req.input())
	if err != nil {
		return writeError(c, err)
	}

	return respond(c, http.StatusOK, "updated", map[string]any{"product": p})
}

func (h *AdminProductHandler) deleteProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	if err := h.uc.AdminDeleteProduct(c.Request().Context(), adminID, id); err != nil {
		return writeError(c, err)
	}

	return respond(c, http.StatusOK, "deleted", nil)
}
