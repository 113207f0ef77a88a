package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 商品書き込み後の検索インデックス追従
type ProductSearchSync interface {
	AfterSave(ctx context.Context, p model.Product)
	AfterDelete(ctx context.Context, productID int64)
}

// ProductUsecase は管理者の商品書き込み。書き込み成功後に検索同期を呼ぶ
type ProductUsecase struct {
	products   repo.ProductRepository
	categories repo.CategoryRepository
	search     ProductSearchSync
	log        *zap.Logger
}

// DI
func NewProductUsecase(
	products repo.ProductRepository,
	categories repo.CategoryRepository,
	search ProductSearchSync,
	log *zap.Logger,
) *ProductUsecase {
	return &ProductUsecase{
		products:   products,
		categories: categories,
		search:     search,
		log:        log,
	}
}

type AdminProductInput struct {
	Name        string
	Description string
	ImageURL    string
	CategoryID  *int64
	Price       decimal.Decimal
	Quantity    int64
	// 空なら active
	Status model.ProductStatus
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in AdminProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	p, err := u.buildProduct(ctx, in)
	if err != nil {
		return model.Product{}, err
	}

	created, err := u.products.Create(ctx, p)
	if err != nil {
		u.log.Error("create product failed", zap.Error(err))
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.search.AfterSave(ctx, created)
	return created, nil
}

func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in AdminProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	current, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	p, err := u.buildProduct(ctx, in)
	if err != nil {
		return model.Product{}, err
	}
	p.ID = current.ID
	p.CreatedAt = current.CreatedAt

	if err := u.products.Update(ctx, p); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
		}
		u.log.Error("update product failed", zap.Int64("product_id", productID), zap.Error(err))
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.search.AfterSave(ctx, p)
	return p, nil
}

func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := u.products.Delete(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "product not found")
		}
		u.log.Error("delete product failed", zap.Int64("product_id", productID), zap.Error(err))
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.search.AfterDelete(ctx, productID)
	return nil
}

// 入力チェックして保存用の Product にする
func (u *ProductUsecase) buildProduct(ctx context.Context, in AdminProductInput) (model.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "name required")
	}
	if len(name) > 255 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "name too long")
	}
	if in.Price.IsNegative() {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if in.Quantity < 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "quantity must be >= 0")
	}

	status := in.Status
	if status == "" {
		status = model.ProductStatusActive
	}
	if !status.Valid() {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	p := model.Product{
		Name:        name,
		Description: in.Description,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		CategoryID:  in.CategoryID,
		Status:      status,
		Price:       in.Price.Round(2),
		Quantity:    in.Quantity,
	}

	if in.CategoryID != nil {
		c, err := u.categories.FindByID(ctx, *in.CategoryID)
		if errors.Is(err, repo.ErrNotFound) {
			return model.Product{}, NewHTTPError(http.StatusBadRequest, "category not found")
		}
		if err != nil {
			return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		p.Category = &c
	}
	return p, nil
}
