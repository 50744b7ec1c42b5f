package services

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"farm_store/internal/errs"
	"farm_store/internal/events"
	"farm_store/internal/models"
	"farm_store/internal/redis"
	"farm_store/internal/repository"
	"farm_store/pkg/paypal"

	"github.com/shopspring/decimal"
)

// memProducts mimics productRepository over a map.
type memProducts struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]models.Product
	clock  time.Time
	lists  int

	// beforeUpdate runs between the service's read and its write.
	beforeUpdate func()
}

func newMemProducts() *memProducts {
	return &memProducts{rows: make(map[uint]models.Product), clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (r *memProducts) Create(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.clock = r.clock.Add(time.Minute)
	p.ID = r.nextID
	p.CreatedAt = r.clock
	p.UpdatedAt = r.clock
	r.rows[p.ID] = *p
	return nil
}

func (r *memProducts) GetByID(_ context.Context, id uint) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, errs.NotFound("memProducts.GetByID", "record not found")
	}
	return &p, nil
}

func (r *memProducts) list(keep func(models.Product) bool) []models.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
	var out []models.Product
	for _, p := range r.rows {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memProducts) ListActive(_ context.Context, category models.Category) ([]models.Product, error) {
	return r.list(func(p models.Product) bool {
		return p.IsActive && (category == "" || p.Category == category)
	}), nil
}

func (r *memProducts) ListAll(_ context.Context) ([]models.Product, error) {
	return r.list(func(models.Product) bool { return true }), nil
}

func (r *memProducts) UpdateColumns(_ context.Context, id uint, columns map[string]interface{}) error {
	if r.beforeUpdate != nil {
		r.beforeUpdate()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return errs.NotFound("memProducts.UpdateColumns", "product not found")
	}
	for col, v := range columns {
		switch col {
		case "name":
			p.Name = v.(string)
		case "category":
			p.Category = v.(models.Category)
		case "price":
			p.Price = v.(decimal.Decimal)
		case "description":
			p.Description = v.(string)
		case "image_url":
			p.ImageURL = v.(string)
		case "stock_quantity":
			p.StockQuantity = v.(int)
		case "is_active":
			p.IsActive = v.(bool)
		case "add_on_name":
			p.AddOnName = v.(string)
		case "add_on_fee":
			p.AddOnFee = v.(decimal.Decimal)
		default:
			return errors.New("memProducts: unknown column " + col)
		}
	}
	r.clock = r.clock.Add(time.Second)
	p.UpdatedAt = r.clock
	r.rows[id] = p
	return nil
}

func (r *memProducts) setStock(id uint, stock int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.rows[id]
	p.StockQuantity = stock
	r.rows[id] = p
}

func (r *memProducts) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return errs.NotFound("memProducts.Delete", "product not found")
	}
	delete(r.rows, id)
	return nil
}

func (r *memProducts) stock(id uint) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id].StockQuantity
}

// memOrders mimics orderRepository, including the unique order number index,
// the conditional stock decrement and the conditional status update.
type memOrders struct {
	mu       sync.Mutex
	products *memProducts
	nextID   uint
	rows     map[uint]models.Order
	numbers  map[string]bool
	clock    time.Time
	placeErr error
}

func newMemOrders(products *memProducts) *memOrders {
	return &memOrders{
		products: products,
		rows:     make(map[uint]models.Order),
		numbers:  make(map[string]bool),
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return o
}

func (r *memOrders) Place(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.placeErr != nil {
		return r.placeErr
	}

	r.products.mu.Lock()
	defer r.products.mu.Unlock()
	for _, item := range order.Items {
		p, ok := r.products.rows[item.ProductID]
		if !ok || !p.IsActive || p.StockQuantity < item.Quantity {
			return &errs.Error{Kind: errs.KindConflict, Op: "memOrders.Place", Message: "not enough stock for " + item.Name, Err: repository.ErrInsufficientStock}
		}
	}
	if r.numbers[order.OrderNumber] {
		return &errs.Error{Kind: errs.KindConflict, Op: "memOrders.Place", Message: "order number collision", Err: repository.ErrDuplicateOrderNumber}
	}
	for _, item := range order.Items {
		p := r.products.rows[item.ProductID]
		p.StockQuantity -= item.Quantity
		r.products.rows[item.ProductID] = p
	}

	r.nextID++
	r.clock = r.clock.Add(time.Minute)
	order.ID = r.nextID
	order.CreatedAt = r.clock
	order.UpdatedAt = r.clock
	for i := range order.Items {
		order.Items[i].ID = uint(i + 1)
		order.Items[i].OrderID = order.ID
	}
	r.numbers[order.OrderNumber] = true
	r.rows[order.ID] = cloneOrder(*order)
	return nil
}

func (r *memOrders) GetByID(_ context.Context, id uint) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.rows[id]
	if !ok {
		return nil, errs.NotFound("memOrders.GetByID", "record not found")
	}
	o = cloneOrder(o)
	return &o, nil
}

func (r *memOrders) GetByNumber(_ context.Context, number string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.rows {
		if o.OrderNumber == number {
			o = cloneOrder(o)
			return &o, nil
		}
	}
	return nil, errs.NotFound("memOrders.GetByNumber", "record not found")
}

func (r *memOrders) List(_ context.Context, filter models.OrderFilter) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	archived := filter.Archived != nil && *filter.Archived
	var out []models.Order
	for _, o := range r.rows {
		if o.Archived != archived {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memOrders) UpdateStatus(_ context.Context, id uint, from, to models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.rows[id]
	if !ok {
		return errs.NotFound("memOrders.UpdateStatus", "order not found")
	}
	if o.Status != from {
		return &errs.Error{Kind: errs.KindConflict, Op: "memOrders.UpdateStatus", Message: "order was changed by another request", Err: repository.ErrStaleStatus}
	}
	o.Status = to
	r.rows[id] = o
	if to == models.OrderCancelled {
		r.restock(o)
	}
	return nil
}

func (r *memOrders) restock(o models.Order) {
	r.products.mu.Lock()
	defer r.products.mu.Unlock()
	for _, item := range o.Items {
		if p, ok := r.products.rows[item.ProductID]; ok {
			p.StockQuantity += item.Quantity
			r.products.rows[item.ProductID] = p
		}
	}
}

func (r *memOrders) UpdatePaymentStatus(_ context.Context, id uint, from, to models.PaymentStatus, paymentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.rows[id]
	if !ok {
		return errs.NotFound("memOrders.UpdatePaymentStatus", "order not found")
	}
	if o.PaymentStatus != from {
		return &errs.Error{Kind: errs.KindConflict, Op: "memOrders.UpdatePaymentStatus", Message: "order was changed by another request", Err: repository.ErrStaleStatus}
	}
	o.PaymentStatus = to
	if paymentID != "" {
		o.PaymentID = paymentID
	}
	r.rows[id] = o
	return nil
}

func (r *memOrders) SetArchived(_ context.Context, id uint, archived bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.rows[id]
	if !ok {
		return errs.NotFound("memOrders.SetArchived", "order not found")
	}
	o.Archived = archived
	r.rows[id] = o
	return nil
}

func (r *memOrders) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.rows[id]
	if !ok {
		return errs.NotFound("memOrders.Delete", "order not found")
	}
	if !o.Status.Terminal() {
		r.restock(o)
	}
	delete(r.rows, id)
	return nil
}

func (r *memOrders) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type recordingNotifier struct {
	mu            sync.Mutex
	confirmations []string
	statusUpdates []models.OrderStatus
	contactAlerts int
	err           error
}

func (n *recordingNotifier) SendOrderConfirmation(_ context.Context, o *models.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmations = append(n.confirmations, o.OrderNumber)
	return n.err
}

func (n *recordingNotifier) SendStatusUpdate(_ context.Context, o *models.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statusUpdates = append(n.statusUpdates, o.Status)
	return n.err
}

func (n *recordingNotifier) SendContactAlert(context.Context, *models.ContactMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.contactAlerts++
	return n.err
}

func (n *recordingNotifier) statuses() []models.OrderStatus {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.OrderStatus(nil), n.statusUpdates...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Type
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeGateway struct {
	approved   *paypal.Order
	lookupErr  error
	capture    *paypal.Capture
	captureErr error
	captured   []string
	created    []decimal.Decimal
}

func (g *fakeGateway) GetOrder(_ context.Context, id string) (*paypal.Order, error) {
	if g.lookupErr != nil {
		return nil, g.lookupErr
	}
	if g.approved == nil {
		return nil, &paypal.APIError{StatusCode: http.StatusNotFound, Body: "RESOURCE_NOT_FOUND"}
	}
	return g.approved, nil
}

func (g *fakeGateway) CreateOrder(_ context.Context, amount decimal.Decimal, _, _ string) (string, error) {
	g.created = append(g.created, amount)
	return "PP-ORDER", nil
}

func (g *fakeGateway) CaptureOrder(_ context.Context, id string) (*paypal.Capture, error) {
	g.captured = append(g.captured, id)
	if g.captureErr != nil {
		return nil, g.captureErr
	}
	return g.capture, nil
}

type memCache struct {
	mu      sync.Mutex
	entries map[string]interface{}
	deletes int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]interface{})}
}

func (c *memCache) GetJSON(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return redis.ErrNotFound
	}
	out, ok := dest.(*[]models.Product)
	if !ok {
		return errors.New("memCache: unsupported destination")
	}
	*out = append([]models.Product(nil), v.([]models.Product)...)
	return nil
}

func (c *memCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(v int) *int { return &v }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
