package enums

import "fmt"

// IFoodOrderStatus tracks the lifecycle of a marketplace order mirror row.
type IFoodOrderStatus string

const (
	IFoodOrderStatusPending               IFoodOrderStatus = "pending"
	IFoodOrderStatusConfirmed             IFoodOrderStatus = "confirmed"
	IFoodOrderStatusPreparing             IFoodOrderStatus = "preparing"
	IFoodOrderStatusReady                 IFoodOrderStatus = "ready"
	IFoodOrderStatusDispatched            IFoodOrderStatus = "dispatched"
	IFoodOrderStatusConcluded             IFoodOrderStatus = "concluded"
	IFoodOrderStatusCancelled             IFoodOrderStatus = "cancelled"
	IFoodOrderStatusCancellationRequested IFoodOrderStatus = "cancellation_requested"
	IFoodOrderStatusReturning             IFoodOrderStatus = "returning"
	IFoodOrderStatusReturnCodeRequested   IFoodOrderStatus = "return_code_requested"
	IFoodOrderStatusReturned              IFoodOrderStatus = "returned"
	IFoodOrderStatusRejected              IFoodOrderStatus = "rejected"
)

var validIFoodOrderStatuses = []IFoodOrderStatus{
	IFoodOrderStatusPending,
	IFoodOrderStatusConfirmed,
	IFoodOrderStatusPreparing,
	IFoodOrderStatusReady,
	IFoodOrderStatusDispatched,
	IFoodOrderStatusConcluded,
	IFoodOrderStatusCancelled,
	IFoodOrderStatusCancellationRequested,
	IFoodOrderStatusReturning,
	IFoodOrderStatusReturnCodeRequested,
	IFoodOrderStatusReturned,
	IFoodOrderStatusRejected,
}

// TerminalIFoodOrderStatuses are the statuses excluded from "active" queries.
var TerminalIFoodOrderStatuses = []IFoodOrderStatus{
	IFoodOrderStatusConcluded,
	IFoodOrderStatusCancelled,
	IFoodOrderStatusRejected,
	IFoodOrderStatusReturned,
}

// String implements fmt.Stringer.
func (s IFoodOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known IFoodOrderStatus.
func (s IFoodOrderStatus) IsValid() bool {
	for _, candidate := range validIFoodOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is expected from s.
func (s IFoodOrderStatus) IsTerminal() bool {
	for _, candidate := range TerminalIFoodOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseIFoodOrderStatus converts raw input into an IFoodOrderStatus.
func ParseIFoodOrderStatus(value string) (IFoodOrderStatus, error) {
	for _, candidate := range validIFoodOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ifood order status %q", value)
}
