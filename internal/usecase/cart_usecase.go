package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartUsecase は /cart の業務ロジックです。
// カート本体はRedis、商品の確認はDBを見ます。
type CartUsecase struct {
	carts    repo.CartStore
	products repo.ProductRepository
	log      *zap.Logger
}

func NewCartUsecase(carts repo.CartStore, products repo.ProductRepository, log *zap.Logger) *CartUsecase {
	return &CartUsecase{carts: carts, products: products, log: log}
}

// 名前・価格・画像は表示時点の商品から取る
type CartItemResponse struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"imageUrl"`
	Quantity  int64           `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	// 販売中でカートの数量ぶん在庫がある
	Available bool `json:"available"`
}

type CartResponse struct {
	Items      []CartItemResponse `json:"items"`
	TotalItems int64              `json:"totalItems"`
	Total      decimal.Decimal    `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

// GetCart はカートの中身を今の商品情報で返す。合計は送料抜き。
// 削除済みの商品は表示しない
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	entries, err := u.carts.Get(ctx, userID)
	if err != nil {
		u.log.Error("read cart failed", zap.Int64("user_id", userID), zap.Error(err))
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "cart store error")
	}
	if len(entries) == 0 {
		return buildCartResponse(nil, nil), nil
	}

	ids := make([]int64, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	// 1クエリでまとめて引く
	products, err := u.products.FindByIDs(ctx, ids)
	if err != nil {
		u.log.Error("load cart products failed", zap.Int64("user_id", userID), zap.Error(err))
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return buildCartResponse(entries, products), nil
}

// AddToCart は数量を上書きで入れる（加算しない）
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid productId")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	p, err := u.purchasableProduct(ctx, in.ProductID, in.Quantity)
	if err != nil {
		return CartResponse{}, err
	}

	entry := model.CartEntry{
		ProductID: p.ID,
		Quantity:  in.Quantity,
		Name:      p.Name,
		Price:     p.Price,
		ImageURL:  p.ImageURL,
	}
	if err := u.carts.Set(ctx, userID, entry); err != nil {
		u.log.Error("write cart failed", zap.Int64("user_id", userID), zap.Error(err))
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "cart store error")
	}
	return u.GetCart(ctx, userID)
}

// UpdateCartItem は既にある行の数量だけ変える
func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID, productID, quantity int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid productId")
	}
	if quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	entries, err := u.carts.Get(ctx, userID)
	if err != nil {
		u.log.Error("read cart failed", zap.Int64("user_id", userID), zap.Error(err))
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "cart store error")
	}
	entry, ok := entries[productID]
	if !ok {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "product not in cart")
	}

	if _, err := u.purchasableProduct(ctx, productID, quantity); err != nil {
		return CartResponse{}, err
	}

	entry.Quantity = quantity
	if err := u.carts.Set(ctx, userID, entry); err != nil {
		u.log.Error("write cart failed", zap.Int64("user_id", userID), zap.Error(err))
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "cart store error")
	}
	return u.GetCart(ctx, userID)
}

func (u *CartUsecase) RemoveFromCart(ctx context.Context, userID, productID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid productId")
	}

	removed, err := u.carts.Remove(ctx, userID, productID)
	if err != nil {
		u.log.Error("remove cart item failed", zap.Int64("user_id", userID), zap.Error(err))
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "cart store error")
	}
	if !removed {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "product not in cart")
	}
	return u.GetCart(ctx, userID)
}

func (u *CartUsecase) ClearCart(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := u.carts.Clear(ctx, userID); err != nil {
		u.log.Error("clear cart failed", zap.Int64("user_id", userID), zap.Error(err))
		return NewHTTPError(http.StatusInternalServerError, "cart store error")
	}
	return nil
}

// 販売中で在庫が qty 以上ある商品だけ通す
func (u *CartUsecase) purchasableProduct(ctx context.Context, productID, qty int64) (model.Product, error) {
	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.Purchasable() {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "product is not available")
	}
	if p.Quantity < qty {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, fmt.Sprintf("not enough stock: only %d left", p.Quantity))
	}
	return p, nil
}

func buildCartResponse(entries map[int64]model.CartEntry, products []model.Product) CartResponse {
	out := CartResponse{Items: make([]CartItemResponse, 0, len(products)), Total: decimal.Zero}
	for _, p := range products {
		e, ok := entries[p.ID]
		if !ok {
			continue
		}
		sub := p.Price.Mul(decimal.NewFromInt(e.Quantity))
		out.Items = append(out.Items, CartItemResponse{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			ImageURL:  p.ImageURL,
			Quantity:  e.Quantity,
			Subtotal:  sub,
			Available: p.Purchasable() && p.Quantity >= e.Quantity,
		})
		out.TotalItems += e.Quantity
		out.Total = out.Total.Add(sub)
	}
	sort.Slice(out.Items, func(i, j int) bool { return out.Items[i].ProductID < out.Items[j].ProductID })
	return out
}
