package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/comandahub/comanda-backend/pkg/enums"
)

func TestCanTransition(t *testing.T) {
	t.Run("happy path walks the full lifecycle", func(t *testing.T) {
		path := []enums.IFoodOrderStatus{
			enums.IFoodOrderStatusPending,
			enums.IFoodOrderStatusConfirmed,
			enums.IFoodOrderStatusPreparing,
			enums.IFoodOrderStatusReady,
			enums.IFoodOrderStatusDispatched,
			enums.IFoodOrderStatusConcluded,
		}
		for i := 1; i < len(path); i++ {
			assert.True(t, CanTransition(path[i-1], path[i]), "%s -> %s", path[i-1], path[i])
		}
	})

	t.Run("terminal statuses never move", func(t *testing.T) {
		for _, terminal := range enums.TerminalIFoodOrderStatuses {
			assert.False(t, CanTransition(terminal, enums.IFoodOrderStatusPreparing), "from %s", terminal)
		}
	})

	t.Run("out-of-order events are rejected", func(t *testing.T) {
		assert.False(t, CanTransition(enums.IFoodOrderStatusDispatched, enums.IFoodOrderStatusPreparing))
		assert.False(t, CanTransition(enums.IFoodOrderStatusPending, enums.IFoodOrderStatusConcluded))
		assert.False(t, CanTransition(enums.IFoodOrderStatusReady, enums.IFoodOrderStatusCancelled))
	})

	t.Run("duplicate status is a no-op", func(t *testing.T) {
		assert.False(t, CanTransition(enums.IFoodOrderStatusConfirmed, enums.IFoodOrderStatusConfirmed))
	})

	t.Run("cancellation flow", func(t *testing.T) {
		assert.True(t, CanTransition(enums.IFoodOrderStatusConfirmed, enums.IFoodOrderStatusCancellationRequested))
		assert.True(t, CanTransition(enums.IFoodOrderStatusPreparing, enums.IFoodOrderStatusCancellationRequested))
		assert.True(t, CanTransition(enums.IFoodOrderStatusCancellationRequested, enums.IFoodOrderStatusCancelled))
	})

	t.Run("cancellation requests only leave confirmed or preparing", func(t *testing.T) {
		assert.False(t, CanTransition(enums.IFoodOrderStatusPending, enums.IFoodOrderStatusCancellationRequested))
		assert.False(t, CanTransition(enums.IFoodOrderStatusReady, enums.IFoodOrderStatusCancellationRequested))
		assert.False(t, CanTransition(enums.IFoodOrderStatusDispatched, enums.IFoodOrderStatusCancellationRequested))
	})

	t.Run("return flow runs off dispatched", func(t *testing.T) {
		assert.True(t, CanTransition(enums.IFoodOrderStatusDispatched, enums.IFoodOrderStatusReturning))
		assert.True(t, CanTransition(enums.IFoodOrderStatusReturning, enums.IFoodOrderStatusReturnCodeRequested))
		assert.True(t, CanTransition(enums.IFoodOrderStatusReturnCodeRequested, enums.IFoodOrderStatusReturned))
		assert.False(t, CanTransition(enums.IFoodOrderStatusPreparing, enums.IFoodOrderStatusReturning))
	})
}

func TestRollbackStatus(t *testing.T) {
	assert.Equal(t, enums.IFoodOrderStatusPreparing, RollbackStatus(true))
	assert.Equal(t, enums.IFoodOrderStatusConfirmed, RollbackStatus(false))
}

func TestProject(t *testing.T) {
	t.Run("mirrored statuses", func(t *testing.T) {
		native, ok := Project(enums.IFoodOrderStatusPreparing)
		assert.True(t, ok)
		assert.Equal(t, enums.OrderStatusPreparing, native)

		native, ok = Project(enums.IFoodOrderStatusConcluded)
		assert.True(t, ok)
		assert.Equal(t, enums.OrderStatusDelivered, native)

		native, ok = Project(enums.IFoodOrderStatusReturned)
		assert.True(t, ok)
		assert.Equal(t, enums.OrderStatusCancelled, native)
	})

	t.Run("statuses without a local equivalent", func(t *testing.T) {
		_, ok := Project(enums.IFoodOrderStatusDispatched)
		assert.False(t, ok)
		_, ok = Project(enums.IFoodOrderStatusCancellationRequested)
		assert.False(t, ok)
	})
}
