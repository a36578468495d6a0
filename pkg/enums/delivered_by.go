package enums

import "fmt"

// DeliveredBy identifies who runs the delivery leg of an order.
type DeliveredBy string

const (
	DeliveredByIFood    DeliveredBy = "IFOOD"
	DeliveredByMerchant DeliveredBy = "MERCHANT"
)

func (d DeliveredBy) String() string {
	return string(d)
}

func (d DeliveredBy) IsValid() bool {
	return d == DeliveredByIFood || d == DeliveredByMerchant
}

func ParseDeliveredBy(value string) (DeliveredBy, error) {
	switch DeliveredBy(value) {
	case DeliveredByIFood, DeliveredByMerchant:
		return DeliveredBy(value), nil
	}
	return "", fmt.Errorf("invalid delivered by %q", value)
}
