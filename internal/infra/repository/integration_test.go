//go:build integration

package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/infra/db"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

type PostgresSuite struct {
	suite.Suite

	container *postgres.PostgresContainer
	db        *gorm.DB
	user      model.User
}

func TestPostgresSuite(t *testing.T) {
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupSuite() {
	ctx := context.Background()

	ctr, err := postgres.Run(ctx,
		"postgres:15",
		postgres.WithDatabase("storefront"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	s.Require().NoError(err)
	s.container = ctr

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.db, err = db.Connect(config.PostgresConfig{URL: dsn})
	s.Require().NoError(err)
	s.Require().NoError(db.Migrate(s.db))

	s.user = model.User{FullName: "Nguyen Van A", Email: "a@example.com"}
	s.Require().NoError(s.db.Create(&s.user).Error)
}

func (s *PostgresSuite) TearDownSuite() {
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *PostgresSuite) newProduct(qty int64) model.Product {
	p, err := NewProductGormRepository(s.db).Create(context.Background(), model.Product{
		Name:     "Phin",
		Status:   model.ProductStatusActive,
		Price:    decimal.NewFromInt(29000),
		Quantity: qty,
	})
	s.Require().NoError(err)
	return p
}

func (s *PostgresSuite) TestFindByIDsSkipsMissing() {
	ctx := context.Background()
	a := s.newProduct(1)
	b := s.newProduct(2)
	products := NewProductGormRepository(s.db)

	got, err := products.FindByIDs(ctx, []int64{b.ID, a.ID, 999999})
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(a.ID, got[0].ID)
	s.Equal(b.ID, got[1].ID)

	got, err = products.FindByIDs(ctx, nil)
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *PostgresSuite) TestLockByIDsOrdersAscending() {
	ctx := context.Background()
	a := s.newProduct(1)
	b := s.newProduct(1)
	tm := NewTxManagerGorm(s.db, time.Second)

	err := tm.WithinTx(ctx, func(r repo.TxRepos) error {
		got, err := r.Products().LockByIDs(ctx, []int64{b.ID, a.ID})
		if err != nil {
			return err
		}
		s.Require().Len(got, 2)
		s.Equal(a.ID, got[0].ID)
		s.Equal(b.ID, got[1].ID)
		return nil
	})
	s.NoError(err)
}

// 他トランザクションがロックを持っている間は lock_timeout で諦める
func (s *PostgresSuite) TestLockWaitTimesOut() {
	ctx := context.Background()
	p := s.newProduct(5)
	tm := NewTxManagerGorm(s.db, 200*time.Millisecond)

	locked := make(chan struct{})
	release := make(chan struct{})
	holderDone := make(chan error, 1)
	go func() {
		holderDone <- tm.WithinTx(ctx, func(r repo.TxRepos) error {
			if _, err := r.Products().LockByIDs(ctx, []int64{p.ID}); err != nil {
				close(locked)
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	err := tm.WithinTx(ctx, func(r repo.TxRepos) error {
		_, err := r.Products().LockByIDs(ctx, []int64{p.ID})
		return err
	})
	s.ErrorIs(err, repo.ErrLockTimeout)

	close(release)
	s.NoError(<-holderDone)
}

// 同時に減算しても在庫数より多くは売れない
func (s *PostgresSuite) TestConcurrentDecrementsNeverOversell() {
	ctx := context.Background()
	const stock, buyers = 3, 8
	p := s.newProduct(stock)
	tm := NewTxManagerGorm(s.db, 5*time.Second)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sold int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := tm.WithinTx(ctx, func(r repo.TxRepos) error {
				got, err := r.Products().LockByIDs(ctx, []int64{p.ID})
				if err != nil {
					return err
				}
				cur := got[0]
				if !cur.Purchasable() || cur.Quantity < 1 {
					return repo.ErrNotFound
				}
				if err := cur.DecreaseStock(1); err != nil {
					return err
				}
				return r.Products().SaveStock(ctx, cur)
			})
			if err == nil {
				mu.Lock()
				sold++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(stock, sold)
	after, err := NewProductGormRepository(s.db).FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(int64(0), after.Quantity)
	s.Equal(model.ProductStatusOutOfStock, after.Status)
}

func (s *PostgresSuite) TestRollbackKeepsStock() {
	ctx := context.Background()
	p := s.newProduct(4)
	tm := NewTxManagerGorm(s.db, time.Second)

	err := tm.WithinTx(ctx, func(r repo.TxRepos) error {
		got, err := r.Products().LockByIDs(ctx, []int64{p.ID})
		if err != nil {
			return err
		}
		cur := got[0]
		_ = cur.DecreaseStock(4)
		if err := r.Products().SaveStock(ctx, cur); err != nil {
			return err
		}
		return assert.AnError
	})
	s.ErrorIs(err, assert.AnError)

	after, err := NewProductGormRepository(s.db).FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(int64(4), after.Quantity)
}

func (s *PostgresSuite) TestDeleteProductKeepsOrderSnapshot() {
	ctx := context.Background()
	p := s.newProduct(2)
	order := s.newOrder(p, time.Now())

	s.Require().NoError(NewProductGormRepository(s.db).Delete(ctx, p.ID))

	items, err := NewOrderItemGormRepository(s.db).ListByOrderID(ctx, order.ID)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Nil(items[0].ProductID)
	s.Equal("Phin", items[0].ProductName)
	s.True(items[0].ProductPrice.Equal(decimal.NewFromInt(29000)))

	_, err = NewProductGormRepository(s.db).FindByID(ctx, p.ID)
	s.ErrorIs(err, repo.ErrNotFound)
}

func (s *PostgresSuite) TestListUnnotifiedSkipsNotifiedOrders() {
	ctx := context.Background()
	p := s.newProduct(10)
	notified := s.newOrder(p, time.Now())
	pending := s.newOrder(p, time.Now())

	notifications := NewNotificationGormRepository(s.db)
	rec := model.OrderNotification{OrderID: notified.ID, Outcome: model.NotificationSent, Recipient: s.user.Email, RecordedAt: time.Now()}
	s.Require().NoError(notifications.Record(ctx, rec))
	// 二重記録でもエラーにならない
	s.Require().NoError(notifications.Record(ctx, rec))

	sent, err := notifications.IsSent(ctx, notified.ID)
	s.Require().NoError(err)
	s.True(sent)

	orders, err := NewOrderGormRepository(s.db).ListUnnotified(ctx, time.Now().Add(time.Minute), 100)
	s.Require().NoError(err)
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	s.Contains(ids, pending.ID)
	s.NotContains(ids, notified.ID)

	detail, err := NewOrderGormRepository(s.db).FindWithDetails(ctx, pending.ID)
	s.Require().NoError(err)
	s.Require().NotNil(detail.Customer)
	s.Equal(s.user.Email, detail.Customer.Email)
	s.Len(detail.Items, 1)
}

func (s *PostgresSuite) TestAddressSetDefaultKeepsOne() {
	ctx := context.Background()
	addresses := NewAddressGormRepository(s.db)

	base := model.Address{
		UserID: s.user.ID, FullName: "Nguyen Van A", Phone: "0900000000", Street: "1 Le Loi",
		Ward: "Ben Nghe", District: "Quan 1", Province: "Ho Chi Minh",
	}
	first := base
	first.IsDefault = true
	a, err := addresses.Create(ctx, first)
	s.Require().NoError(err)
	b, err := addresses.Create(ctx, base)
	s.Require().NoError(err)

	s.Require().NoError(addresses.SetDefault(ctx, s.user.ID, b.ID))

	def, err := addresses.FindDefaultByUserID(ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(b.ID, def.ID)

	list, err := addresses.ListByUserID(ctx, s.user.ID)
	s.Require().NoError(err)
	defaults := 0
	for _, x := range list {
		if x.IsDefault {
			defaults++
		}
	}
	s.Equal(1, defaults)
	s.Equal(b.ID, list[0].ID)

	// 他人の住所は default にできない
	s.ErrorIs(addresses.SetDefault(ctx, s.user.ID+1000, a.ID), repo.ErrNotFound)

	s.Require().NoError(addresses.Delete(ctx, a.ID))
	s.ErrorIs(addresses.Delete(ctx, a.ID), repo.ErrNotFound)
}

func (s *PostgresSuite) TestAdminOrderStatusAndRead() {
	ctx := context.Background()
	p := s.newProduct(1)
	o := s.newOrder(p, time.Now())
	orders := NewOrderGormRepository(s.db)
	tm := NewTxManagerGorm(s.db, time.Second)

	err := tm.WithinTx(ctx, func(r repo.TxRepos) error {
		locked, err := r.OrderStatuses().LockByID(ctx, o.ID)
		if err != nil {
			return err
		}
		s.Equal(model.OrderStatusPending, locked.Status)
		return r.OrderStatuses().UpdateStatus(ctx, o.ID, model.OrderStatusProcessing)
	})
	s.Require().NoError(err)

	list, total, err := orders.ListAdmin(ctx, repo.AdminOrderFilter{Status: model.OrderStatusProcessing, UnreadOnly: true, Page: 1, Limit: 10})
	s.Require().NoError(err)
	s.GreaterOrEqual(total, int64(1))
	s.Require().NotEmpty(list)
	s.Equal(o.ID, list[0].ID)
	s.Require().NotNil(list[0].Customer)

	s.Require().NoError(orders.MarkRead(ctx, o.ID))
	_, total, err = orders.ListAdmin(ctx, repo.AdminOrderFilter{Status: model.OrderStatusProcessing, UnreadOnly: true, Page: 1, Limit: 10})
	s.Require().NoError(err)
	s.Equal(int64(0), total)

	s.ErrorIs(orders.MarkRead(ctx, o.ID+1000), repo.ErrNotFound)
}

// skipped/dead_lettered の注文は reconcile から外れ、limit 1 でも後ろの注文が返る
func (s *PostgresSuite) TestListUnnotifiedSkipsTerminalOutcomes() {
	ctx := context.Background()
	p := s.newProduct(10)
	at := time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
	noEmail := s.newOrder(p, at)
	deadLettered := s.newOrder(p, at)
	lost := s.newOrder(p, at)
	before := at.Add(time.Hour)

	notifications := NewNotificationGormRepository(s.db)
	orders := NewOrderGormRepository(s.db)

	got, err := orders.ListUnnotified(ctx, before, 1)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(noEmail.ID, got[0].ID)

	s.Require().NoError(notifications.Record(ctx, model.OrderNotification{
		OrderID: noEmail.ID, Outcome: model.NotificationSkipped, Reason: "no customer email", RecordedAt: time.Now(),
	}))
	s.Require().NoError(notifications.Record(ctx, model.OrderNotification{
		OrderID: deadLettered.ID, Outcome: model.NotificationDeadLettered, Reason: "smtp down", RecordedAt: time.Now(),
	}))

	got, err = orders.ListUnnotified(ctx, before, 1)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(lost.ID, got[0].ID)

	sent, err := notifications.IsSent(ctx, deadLettered.ID)
	s.Require().NoError(err)
	s.False(sent)
}

// dead_lettered は後の送信成功で sent になり、sent は戻らない
func (s *PostgresSuite) TestRecordNeverDowngradesSent() {
	ctx := context.Background()
	o := s.newOrder(s.newProduct(1), time.Now())
	notifications := NewNotificationGormRepository(s.db)

	s.Require().NoError(notifications.Record(ctx, model.OrderNotification{
		OrderID: o.ID, Outcome: model.NotificationDeadLettered, Reason: "smtp down", RecordedAt: time.Now(),
	}))
	s.Require().NoError(notifications.Record(ctx, model.OrderNotification{
		OrderID: o.ID, Outcome: model.NotificationSent, Recipient: s.user.Email, RecordedAt: time.Now(),
	}))
	s.Require().NoError(notifications.Record(ctx, model.OrderNotification{
		OrderID: o.ID, Outcome: model.NotificationDeadLettered, Reason: "redelivered", RecordedAt: time.Now(),
	}))

	var rec model.OrderNotification
	s.Require().NoError(s.db.Where("order_id = ?", o.ID).First(&rec).Error)
	s.Equal(model.NotificationSent, rec.Outcome)
	s.Equal(s.user.Email, rec.Recipient)
	s.Empty(rec.Reason)
}

func (s *PostgresSuite) newOrder(p model.Product, at time.Time) model.Order {
	ctx := context.Background()
	o := model.Order{
		UserID:        s.user.ID,
		Status:        model.OrderStatusPending,
		TotalPrice:    p.Price.Add(model.ShippingFee),
		PaymentMethod: "COD",
		CreatedAt:     at,
	}
	o.SetShipping(model.ShippingAddress{
		FullName: "Nguyen Van A", Phone: "0900000000", Street: "1 Le Loi",
		Ward: "Ben Nghe", District: "Quan 1", Province: "Ho Chi Minh",
	})

	created, err := NewOrderGormRepository(s.db).Create(ctx, o)
	s.Require().NoError(err)

	pid := p.ID
	err = NewOrderItemGormRepository(s.db).CreateBulk(ctx, created.ID, []model.OrderItem{{
		ProductID:    &pid,
		Quantity:     1,
		ProductName:  p.Name,
		ProductPrice: p.Price,
	}})
	s.Require().NoError(err)
	return created
}
