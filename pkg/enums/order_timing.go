package enums

import "fmt"

// OrderTiming distinguishes immediate orders from scheduled ones.
type OrderTiming string

const (
	OrderTimingImmediate OrderTiming = "IMMEDIATE"
	OrderTimingScheduled OrderTiming = "SCHEDULED"
)

func (t OrderTiming) String() string {
	return string(t)
}

func (t OrderTiming) IsValid() bool {
	return t == OrderTimingImmediate || t == OrderTimingScheduled
}

func ParseOrderTiming(value string) (OrderTiming, error) {
	switch OrderTiming(value) {
	case OrderTimingImmediate, OrderTimingScheduled:
		return OrderTiming(value), nil
	}
	return "", fmt.Errorf("invalid order timing %q", value)
}
