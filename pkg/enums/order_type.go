package enums

import "fmt"

// OrderType is the marketplace fulfillment mode for an order.
type OrderType string

const (
	OrderTypeDelivery OrderType = "DELIVERY"
	OrderTypeTakeout  OrderType = "TAKEOUT"
	OrderTypeIndoor   OrderType = "INDOOR"
)

var validOrderTypes = []OrderType{
	OrderTypeDelivery,
	OrderTypeTakeout,
	OrderTypeIndoor,
}

func (t OrderType) String() string {
	return string(t)
}

func (t OrderType) IsValid() bool {
	for _, candidate := range validOrderTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

func ParseOrderType(value string) (OrderType, error) {
	for _, candidate := range validOrderTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order type %q", value)
}
