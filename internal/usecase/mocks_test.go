package usecase_test

import (
	"context"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/stretchr/testify/mock"
)

// =====================
// Mocks
// =====================

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	ps, _ := args.Get(0).([]model.Product)
	return ps, args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(model.Product)
	return created, args.Error(1)
}

func (m *ProductRepoMock) Update(ctx context.Context, p model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProductRepoMock) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// batches に積んだ分を順に fn へ渡す
func (m *ProductRepoMock) FindInBatches(ctx context.Context, batchSize int, fn func(batch []model.Product) error) error {
	args := m.Called(ctx, batchSize)
	batches, _ := args.Get(0).([][]model.Product)
	for _, b := range batches {
		if err := fn(b); err != nil {
			return err
		}
	}
	return args.Error(1)
}

type CategoryRepoMock struct{ mock.Mock }

func (m *CategoryRepoMock) FindByID(ctx context.Context, id int64) (model.Category, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(model.Category)
	return c, args.Error(1)
}

func (m *CategoryRepoMock) FindByIDs(ctx context.Context, ids []int64) ([]model.Category, error) {
	args := m.Called(ctx, ids)
	cs, _ := args.Get(0).([]model.Category)
	return cs, args.Error(1)
}

type SearchIndexMock struct{ mock.Mock }

func (m *SearchIndexMock) Upsert(ctx context.Context, doc model.SearchDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *SearchIndexMock) Delete(ctx context.Context, productID int64) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

func (m *SearchIndexMock) BulkUpsert(ctx context.Context, docs []model.SearchDocument) error {
	args := m.Called(ctx, docs)
	return args.Error(0)
}

type SearchSyncMock struct{ mock.Mock }

func (m *SearchSyncMock) AfterSave(ctx context.Context, p model.Product) {
	m.Called(ctx, p)
}

func (m *SearchSyncMock) AfterDelete(ctx context.Context, productID int64) {
	m.Called(ctx, productID)
}

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) Create(ctx context.Context, o model.Order) (model.Order, error) {
	panic("not used in reconcile tests")
}

func (m *OrderRepoMock) FindByID(ctx context.Context, id int64) (model.Order, error) {
	panic("not used in reconcile tests")
}

func (m *OrderRepoMock) FindWithDetails(ctx context.Context, id int64) (model.Order, error) {
	panic("not used in reconcile tests")
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID int64, page, limit int) ([]model.Order, int64, error) {
	panic("not used in reconcile tests")
}

func (m *OrderRepoMock) ListUnnotified(ctx context.Context, before time.Time, limit int) ([]model.Order, error) {
	args := m.Called(ctx, before, limit)
	os, _ := args.Get(0).([]model.Order)
	return os, args.Error(1)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) PublishOrderCreated(ctx context.Context, evt model.OrderCreatedEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

type AddressBookRepoMock struct{ mock.Mock }

func (m *AddressBookRepoMock) FindDefaultByUserID(ctx context.Context, userID int64) (model.Address, error) {
	args := m.Called(ctx, userID)
	a, _ := args.Get(0).(model.Address)
	return a, args.Error(1)
}

func (m *AddressBookRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]model.Address)
	return list, args.Error(1)
}

func (m *AddressBookRepoMock) FindByID(ctx context.Context, addressID int64) (model.Address, error) {
	args := m.Called(ctx, addressID)
	a, _ := args.Get(0).(model.Address)
	return a, args.Error(1)
}

func (m *AddressBookRepoMock) Create(ctx context.Context, a model.Address) (model.Address, error) {
	args := m.Called(ctx, a)
	out, _ := args.Get(0).(model.Address)
	return out, args.Error(1)
}

func (m *AddressBookRepoMock) Update(ctx context.Context, a model.Address) error {
	return m.Called(ctx, a).Error(0)
}

func (m *AddressBookRepoMock) Delete(ctx context.Context, addressID int64) error {
	return m.Called(ctx, addressID).Error(0)
}

func (m *AddressBookRepoMock) SetDefault(ctx context.Context, userID int64, addressID int64) error {
	return m.Called(ctx, userID, addressID).Error(0)
}

type AdminOrderRepoMock struct{ mock.Mock }

func (m *AdminOrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	os, _ := args.Get(0).([]model.Order)
	return os, args.Get(1).(int64), args.Error(2)
}

func (m *AdminOrderRepoMock) MarkRead(ctx context.Context, orderID int64) error {
	return m.Called(ctx, orderID).Error(0)
}
