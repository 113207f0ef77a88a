package usecase_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// memDB はトランザクションを1本ずつしか通さないインメモリDB。
// 行ロックの代わりに全体ロックで直列化し、fn がエラーなら変更を捨てる
type memDB struct {
	mu sync.Mutex

	products   map[int64]model.Product
	categories map[int64]model.Category
	addresses  map[int64]model.Address // userID -> デフォルト住所
	orders     []model.Order
	items      []model.OrderItem
	outcomes   map[int64]model.NotificationOutcome // 確認メールの結果記録

	nextOrderID int64
	nextItemID  int64

	// テスト用の失敗注入
	txErr        error
	saveStockErr error
	itemsErr     error
}

func newMemDB() *memDB {
	return &memDB{
		products:    map[int64]model.Product{},
		categories:  map[int64]model.Category{},
		addresses:   map[int64]model.Address{},
		outcomes:    map[int64]model.NotificationOutcome{},
		nextOrderID: 1,
		nextItemID:  1,
	}
}

func (db *memDB) putProduct(p model.Product) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.products[p.ID] = p
}

func (db *memDB) product(id int64) model.Product {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.products[id]
}

// putOrder は確定済みの注文を直接入れる
func (db *memDB) putOrder(o model.Order, items ...model.OrderItem) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.orders = append(db.orders, o)
	for _, it := range items {
		it.ID = db.nextItemID
		db.nextItemID++
		it.OrderID = o.ID
		db.items = append(db.items, it)
	}
	if o.ID >= db.nextOrderID {
		db.nextOrderID = o.ID + 1
	}
}

func (db *memDB) order(id int64) model.Order {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, o := range db.orders {
		if o.ID == id {
			return o
		}
	}
	return model.Order{}
}

func (db *memDB) orderCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.orders)
}

func (db *memDB) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.txErr != nil {
		return db.txErr
	}

	products := make(map[int64]model.Product, len(db.products))
	for id, p := range db.products {
		products[id] = p
	}
	tx := &memTx{
		db:          db,
		products:    products,
		statuses:    map[int64]model.OrderStatus{},
		nextOrderID: db.nextOrderID,
		nextItemID:  db.nextItemID,
	}

	if err := fn(tx); err != nil {
		return err
	}

	// commit
	db.products = tx.products
	for i := range db.orders {
		if st, ok := tx.statuses[db.orders[i].ID]; ok {
			db.orders[i].Status = st
		}
	}
	db.orders = append(db.orders, tx.orders...)
	db.items = append(db.items, tx.items...)
	db.nextOrderID = tx.nextOrderID
	db.nextItemID = tx.nextItemID
	return nil
}

// memTx はトランザクション中のビュー。TxRepos の全リポジトリを兼ねる
type memTx struct {
	db       *memDB
	products map[int64]model.Product
	orders   []model.Order
	items    []model.OrderItem
	statuses map[int64]model.OrderStatus

	nextOrderID int64
	nextItemID  int64
}

func (t *memTx) Orders() repo.OrderWriter              { return t }
func (t *memTx) OrderStatuses() repo.OrderStatusWriter { return t }
func (t *memTx) OrderItems() repo.OrderItemRepository  { return t }
func (t *memTx) Products() repo.ProductStockRepository { return t }
func (t *memTx) Categories() repo.CategoryRepository   { return t }
func (t *memTx) Addresses() repo.AddressRepository     { return t }

func (t *memTx) LockByIDs(_ context.Context, ids []int64) ([]model.Product, error) {
	out := []model.Product{}
	for _, id := range ids {
		if p, ok := t.products[id]; ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) SaveStock(_ context.Context, p model.Product) error {
	if t.db.saveStockErr != nil {
		return t.db.saveStockErr
	}
	cur, ok := t.products[p.ID]
	if !ok {
		return repo.ErrNotFound
	}
	cur.Quantity = p.Quantity
	cur.Status = p.Status
	t.products[p.ID] = cur
	return nil
}

func (t *memTx) FindByID(_ context.Context, id int64) (model.Category, error) {
	c, ok := t.db.categories[id]
	if !ok {
		return model.Category{}, repo.ErrNotFound
	}
	return c, nil
}

func (t *memTx) FindByIDs(_ context.Context, ids []int64) ([]model.Category, error) {
	var out []model.Category
	for _, id := range ids {
		if c, ok := t.db.categories[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (t *memTx) FindDefaultByUserID(_ context.Context, userID int64) (model.Address, error) {
	a, ok := t.db.addresses[userID]
	if !ok {
		return model.Address{}, repo.ErrNotFound
	}
	return a, nil
}

func (t *memTx) Create(_ context.Context, o model.Order) (model.Order, error) {
	o.ID = t.nextOrderID
	t.nextOrderID++
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	t.orders = append(t.orders, o)
	return o, nil
}

func (t *memTx) LockByID(_ context.Context, orderID int64) (model.Order, error) {
	for _, o := range t.db.orders {
		if o.ID == orderID {
			if st, ok := t.statuses[orderID]; ok {
				o.Status = st
			}
			return o, nil
		}
	}
	return model.Order{}, repo.ErrNotFound
}

func (t *memTx) UpdateStatus(_ context.Context, orderID int64, status model.OrderStatus) error {
	t.statuses[orderID] = status
	return nil
}

func (t *memTx) CreateBulk(_ context.Context, orderID int64, items []model.OrderItem) error {
	if t.db.itemsErr != nil {
		return t.db.itemsErr
	}
	for i := range items {
		items[i].ID = t.nextItemID
		t.nextItemID++
		items[i].OrderID = orderID
		t.items = append(t.items, items[i])
	}
	return nil
}

func (t *memTx) ListByOrderID(_ context.Context, orderID int64) ([]model.OrderItem, error) {
	var out []model.OrderItem
	for _, it := range append(append([]model.OrderItem{}, t.db.items...), t.items...) {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out, nil
}

// ---- トランザクション外の読み取り（OrderRepository / OrderItemRepository）

type memOrders struct{ db *memDB }

func (m memOrders) Create(context.Context, model.Order) (model.Order, error) {
	panic("orders are created inside a transaction")
}

func (m memOrders) FindByID(_ context.Context, id int64) (model.Order, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, o := range m.db.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return model.Order{}, repo.ErrNotFound
}

func (m memOrders) FindWithDetails(ctx context.Context, id int64) (model.Order, error) {
	o, err := m.FindByID(ctx, id)
	if err != nil {
		return o, err
	}
	o.Items, _ = m.ListByOrderID(ctx, id)
	return o, nil
}

func (m memOrders) ListByUserID(_ context.Context, userID int64, page, limit int) ([]model.Order, int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var mine []model.Order
	for i := len(m.db.orders) - 1; i >= 0; i-- {
		if m.db.orders[i].UserID == userID {
			mine = append(mine, m.db.orders[i])
		}
	}
	total := int64(len(mine))
	start := (page - 1) * limit
	if start >= len(mine) {
		return []model.Order{}, total, nil
	}
	end := start + limit
	if end > len(mine) {
		end = len(mine)
	}
	return mine[start:end], total, nil
}

func (m memOrders) ListUnnotified(_ context.Context, before time.Time, limit int) ([]model.Order, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.Order
	for _, o := range m.db.orders {
		if len(out) == limit {
			break
		}
		if _, recorded := m.db.outcomes[o.ID]; !recorded && o.CreatedAt.Before(before) {
			out = append(out, o)
		}
	}
	return out, nil
}

type memNotifications struct{ db *memDB }

func (n memNotifications) IsSent(_ context.Context, orderID int64) (bool, error) {
	n.db.mu.Lock()
	defer n.db.mu.Unlock()
	return n.db.outcomes[orderID] == model.NotificationSent, nil
}

func (n memNotifications) Record(_ context.Context, rec model.OrderNotification) error {
	n.db.mu.Lock()
	defer n.db.mu.Unlock()
	if n.db.outcomes[rec.OrderID] != model.NotificationSent {
		n.db.outcomes[rec.OrderID] = rec.Outcome
	}
	return nil
}

func (m memOrders) CreateBulk(context.Context, int64, []model.OrderItem) error {
	panic("order items are created inside a transaction")
}

func (m memOrders) ListByOrderID(_ context.Context, orderID int64) ([]model.OrderItem, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.OrderItem
	for _, it := range m.db.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out, nil
}

// ---- カート

type memCart struct {
	mu    sync.Mutex
	carts map[int64]map[int64]model.CartEntry

	getErr   error
	clearErr error

	// Get の直後に呼ばれる（同時実行テスト用）
	afterGet func()
}

func newMemCart() *memCart {
	return &memCart{carts: map[int64]map[int64]model.CartEntry{}}
}

func (c *memCart) put(userID, productID, qty int64, price decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.carts[userID] == nil {
		c.carts[userID] = map[int64]model.CartEntry{}
	}
	c.carts[userID][productID] = model.CartEntry{ProductID: productID, Quantity: qty, Price: price}
}

func (c *memCart) Get(_ context.Context, userID int64) (map[int64]model.CartEntry, error) {
	c.mu.Lock()
	if c.getErr != nil {
		c.mu.Unlock()
		return nil, c.getErr
	}
	out := map[int64]model.CartEntry{}
	for id, e := range c.carts[userID] {
		out[id] = e
	}
	c.mu.Unlock()

	if c.afterGet != nil {
		c.afterGet()
	}
	return out, nil
}

func (c *memCart) Set(_ context.Context, userID int64, e model.CartEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.carts[userID] == nil {
		c.carts[userID] = map[int64]model.CartEntry{}
	}
	c.carts[userID][e.ProductID] = e
	return nil
}

func (c *memCart) Remove(_ context.Context, userID, productID int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.carts[userID][productID]; !ok {
		return false, nil
	}
	delete(c.carts[userID], productID)
	return true, nil
}

func (c *memCart) Clear(_ context.Context, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clearErr != nil {
		return c.clearErr
	}
	delete(c.carts, userID)
	return nil
}

func (c *memCart) size(userID int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.carts[userID])
}

// ---- 後処理の送り先

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.OrderCreatedEvent
	err    error
}

func (p *recordingPublisher) PublishOrderCreated(_ context.Context, evt model.OrderCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) published() []model.OrderCreatedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.OrderCreatedEvent(nil), p.events...)
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []model.OrderCreatedNotice
	err     error
}

func (n *recordingNotifier) OrderCreated(_ context.Context, notice model.OrderCreatedNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.notices = append(n.notices, notice)
	return nil
}

func (n *recordingNotifier) sent() []model.OrderCreatedNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.OrderCreatedNotice(nil), n.notices...)
}
