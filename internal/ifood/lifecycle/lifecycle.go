package lifecycle

import (
	"github.com/comandahub/comanda-backend/pkg/enums"
)

// allowedFrom lists, per target status, the statuses an order may move from.
// Anything not listed is an out-of-order or duplicate event and must leave
// the stored row untouched.
var allowedFrom = map[enums.IFoodOrderStatus][]enums.IFoodOrderStatus{
	enums.IFoodOrderStatusConfirmed: {
		enums.IFoodOrderStatusPending,
	},
	enums.IFoodOrderStatusPreparing: {
		enums.IFoodOrderStatusPending,
		enums.IFoodOrderStatusConfirmed,
	},
	enums.IFoodOrderStatusReady: {
		enums.IFoodOrderStatusConfirmed,
		enums.IFoodOrderStatusPreparing,
	},
	enums.IFoodOrderStatusDispatched: {
		enums.IFoodOrderStatusConfirmed,
		enums.IFoodOrderStatusPreparing,
		enums.IFoodOrderStatusReady,
	},
	enums.IFoodOrderStatusConcluded: {
		enums.IFoodOrderStatusReady,
		enums.IFoodOrderStatusDispatched,
	},
	enums.IFoodOrderStatusCancelled: {
		enums.IFoodOrderStatusPending,
		enums.IFoodOrderStatusConfirmed,
		enums.IFoodOrderStatusPreparing,
		enums.IFoodOrderStatusCancellationRequested,
	},
	enums.IFoodOrderStatusCancellationRequested: {
		enums.IFoodOrderStatusConfirmed,
		enums.IFoodOrderStatusPreparing,
	},
	enums.IFoodOrderStatusReturning: {
		enums.IFoodOrderStatusReady,
		enums.IFoodOrderStatusDispatched,
	},
	enums.IFoodOrderStatusReturnCodeRequested: {
		enums.IFoodOrderStatusReturning,
	},
	enums.IFoodOrderStatusReturned: {
		enums.IFoodOrderStatusReturning,
		enums.IFoodOrderStatusReturnCodeRequested,
	},
}

// CanTransition reports whether an order currently at from may move to.
// Terminal statuses never transition again.
func CanTransition(from, to enums.IFoodOrderStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if from == to {
		return false
	}
	for _, candidate := range allowedFrom[to] {
		if candidate == from {
			return true
		}
	}
	return false
}

// RollbackStatus is the status an order returns to when the marketplace
// denies a cancellation request. Orders that already hit the kitchen go
// back to preparing, the rest to confirmed.
func RollbackStatus(preparationStarted bool) enums.IFoodOrderStatus {
	if preparationStarted {
		return enums.IFoodOrderStatusPreparing
	}
	return enums.IFoodOrderStatusConfirmed
}

// nativeByIFood projects a marketplace status onto the linked local order.
// Statuses with no local equivalent leave the local order alone.
var nativeByIFood = map[enums.IFoodOrderStatus]enums.OrderStatus{
	enums.IFoodOrderStatusConfirmed: enums.OrderStatusPending,
	enums.IFoodOrderStatusPreparing: enums.OrderStatusPreparing,
	enums.IFoodOrderStatusReady:     enums.OrderStatusReady,
	enums.IFoodOrderStatusConcluded: enums.OrderStatusDelivered,
	enums.IFoodOrderStatusCancelled: enums.OrderStatusCancelled,
	enums.IFoodOrderStatusRejected:  enums.OrderStatusCancelled,
	enums.IFoodOrderStatusReturned:  enums.OrderStatusCancelled,
}

// Project returns the local order status that mirrors the given
// marketplace status, when one exists.
func Project(status enums.IFoodOrderStatus) (enums.OrderStatus, bool) {
	native, ok := nativeByIFood[status]
	return native, ok
}
