package mirror

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/comandahub/comanda-backend/internal/ifood/feed"
	ifoodorders "github.com/comandahub/comanda-backend/internal/ifood/orders"
	"github.com/comandahub/comanda-backend/pkg/enums"
)

// Cache is the in-memory order state mirror. It holds every non-terminal
// order per restaurant, keyed by marketplace order id, and answers the
// pending/active views without touching the database.
//
// Writes are last-write-wins on the row's updated_at, so replayed or
// reordered feed messages converge to the freshest state.
type Cache struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]map[string]ifoodorders.OrderView
}

func NewCache() *Cache {
	return &Cache{
		orders: map[uuid.UUID]map[string]ifoodorders.OrderView{},
	}
}

// Apply folds one feed change into the mirror. Applying the same change
// twice is a no-op.
func (c *Cache) Apply(change feed.Change) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tenant := c.orders[change.RestaurantID]

	switch change.Type {
	case feed.TypeDelete:
		delete(tenant, change.Order.IFoodOrderID)
		return
	case feed.TypeInsert, feed.TypeUpdate:
	default:
		return
	}

	view := change.Order
	if existing, ok := tenant[view.IFoodOrderID]; ok && existing.UpdatedAt.After(view.UpdatedAt) {
		// Stale delivery; the mirror already has something newer.
		return
	}

	// Terminal orders leave the mirror entirely, keeping it bounded to
	// the restaurant's live workload.
	if view.Status.IsTerminal() {
		delete(tenant, view.IFoodOrderID)
		return
	}

	if tenant == nil {
		tenant = map[string]ifoodorders.OrderView{}
		c.orders[change.RestaurantID] = tenant
	}
	tenant[view.IFoodOrderID] = view
}

// ReplaceAll rebuilds the whole mirror from a fresh snapshot, dropping any
// state accumulated before a reconnect.
func (c *Cache) ReplaceAll(snapshot []ifoodorders.OrderView) {
	next := map[uuid.UUID]map[string]ifoodorders.OrderView{}
	for _, view := range snapshot {
		if view.Status.IsTerminal() {
			continue
		}
		tenant, ok := next[view.RestaurantID]
		if !ok {
			tenant = map[string]ifoodorders.OrderView{}
			next[view.RestaurantID] = tenant
		}
		tenant[view.IFoodOrderID] = view
	}

	c.mu.Lock()
	c.orders = next
	c.mu.Unlock()
}

// Get returns a single mirrored order.
func (c *Cache) Get(restaurantID uuid.UUID, ifoodOrderID string) (ifoodorders.OrderView, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	view, ok := c.orders[restaurantID][ifoodOrderID]
	return view, ok
}

// Pending lists orders still awaiting acceptance, oldest first.
func (c *Cache) Pending(restaurantID uuid.UUID) []ifoodorders.OrderView {
	return c.list(restaurantID, func(view ifoodorders.OrderView) bool {
		return view.Status == enums.IFoodOrderStatusPending
	})
}

// Active lists every live order, oldest first.
func (c *Cache) Active(restaurantID uuid.UUID) []ifoodorders.OrderView {
	return c.list(restaurantID, func(view ifoodorders.OrderView) bool {
		return true
	})
}

func (c *Cache) list(restaurantID uuid.UUID, keep func(ifoodorders.OrderView) bool) []ifoodorders.OrderView {
	c.mu.RLock()
	defer c.mu.RUnlock()

	views := make([]ifoodorders.OrderView, 0, len(c.orders[restaurantID]))
	for _, view := range c.orders[restaurantID] {
		if keep(view) {
			views = append(views, view)
		}
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].CreatedAt.Equal(views[j].CreatedAt) {
			return views[i].IFoodOrderID < views[j].IFoodOrderID
		}
		return views[i].CreatedAt.Before(views[j].CreatedAt)
	})
	return views
}
