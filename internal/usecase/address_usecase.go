package usecase

import (
	"context"
	"errors"
	"net/http"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// AddressUsecase は住所帳です。
// デフォルト住所は注文時に配送先が省略されたときに使われます。
type AddressUsecase struct {
	addresses repo.AddressBookRepository
	log       *zap.Logger
}

func NewAddressUsecase(addresses repo.AddressBookRepository, log *zap.Logger) *AddressUsecase {
	return &AddressUsecase{addresses: addresses, log: log}
}

type AddressInput struct {
	FullName string
	Phone    string
	Street   string
	Ward     string
	District string
	Province string
}

func (in AddressInput) shipping() model.ShippingAddress {
	return trimShipping(model.ShippingAddress{
		FullName: in.FullName,
		Phone:    in.Phone,
		Street:   in.Street,
		Ward:     in.Ward,
		District: in.District,
		Province: in.Province,
	})
}

func (u *AddressUsecase) List(ctx context.Context, userID int64) ([]model.Address, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	list, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		u.log.Error("list addresses failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if list == nil {
		list = []model.Address{}
	}
	return list, nil
}

// Create は住所を追加する。最初の1件はデフォルトになる
func (u *AddressUsecase) Create(ctx context.Context, userID int64, in AddressInput) (model.Address, error) {
	if userID <= 0 {
		return model.Address{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	ship := in.shipping()
	if !ship.IsComplete() {
		return model.Address{}, NewHTTPError(http.StatusBadRequest, "all address fields are required")
	}

	_, err := u.addresses.FindDefaultByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		u.log.Error("find default address failed", zap.Int64("user_id", userID), zap.Error(err))
		return model.Address{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	a := model.Address{
		UserID:    userID,
		FullName:  ship.FullName,
		Phone:     ship.Phone,
		Street:    ship.Street,
		Ward:      ship.Ward,
		District:  ship.District,
		Province:  ship.Province,
		IsDefault: errors.Is(err, repo.ErrNotFound),
	}
	created, err := u.addresses.Create(ctx, a)
	if err != nil {
		u.log.Error("create address failed", zap.Int64("user_id", userID), zap.Error(err))
		return model.Address{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

func (u *AddressUsecase) Update(ctx context.Context, userID, addressID int64, in AddressInput) (model.Address, error) {
	a, err := u.owned(ctx, userID, addressID)
	if err != nil {
		return model.Address{}, err
	}
	ship := in.shipping()
	if !ship.IsComplete() {
		return model.Address{}, NewHTTPError(http.StatusBadRequest, "all address fields are required")
	}

	a.FullName = ship.FullName
	a.Phone = ship.Phone
	a.Street = ship.Street
	a.Ward = ship.Ward
	a.District = ship.District
	a.Province = ship.Province
	if err := u.addresses.Update(ctx, a); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Address{}, NewHTTPError(http.StatusNotFound, "address not found")
		}
		u.log.Error("update address failed", zap.Int64("address_id", addressID), zap.Error(err))
		return model.Address{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return a, nil
}

// Delete はデフォルト住所でも消せる。次のデフォルトは自動では選ばない
func (u *AddressUsecase) Delete(ctx context.Context, userID, addressID int64) error {
	if _, err := u.owned(ctx, userID, addressID); err != nil {
		return err
	}
	if err := u.addresses.Delete(ctx, addressID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "address not found")
		}
		u.log.Error("delete address failed", zap.Int64("address_id", addressID), zap.Error(err))
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *AddressUsecase) SetDefault(ctx context.Context, userID, addressID int64) error {
	if _, err := u.owned(ctx, userID, addressID); err != nil {
		return err
	}
	//user内でdefaultは1つ
	if err := u.addresses.SetDefault(ctx, userID, addressID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "address not found")
		}
		u.log.Error("set default address failed", zap.Int64("address_id", addressID), zap.Error(err))
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// 所有チェック（本人のみ）
func (u *AddressUsecase) owned(ctx context.Context, userID, addressID int64) (model.Address, error) {
	if userID <= 0 {
		return model.Address{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if addressID <= 0 {
		return model.Address{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	a, err := u.addresses.FindByID(ctx, addressID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Address{}, NewHTTPError(http.StatusNotFound, "address not found")
	}
	if err != nil {
		u.log.Error("find address failed", zap.Int64("address_id", addressID), zap.Error(err))
		return model.Address{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if a.UserID != userID {
		return model.Address{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return a, nil
}
