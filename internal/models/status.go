package models

import "strings"

// Lifecycle labels, in the order the admin panel offers them.
const (
	StatusAwaitingShipment      = "Awaiting shipment"
	StatusOrderShipped          = "Order shipped"
	StatusAwaitingFlight        = "Awaiting flight"
	StatusFlightDeparture       = "Flight departure"
	StatusPickedUpByCustoms     = "Picked up by customs for clearance"
	StatusOnHoldClearance       = "On hold clearance"
	StatusCustomsCleared        = "Customs clearance completed"
	StatusArrivedAtDistribution = "Arrived at recipient distribution center"
	StatusOutForDelivery        = "Out for Delivery"
	StatusDelivered             = "Delivered"
	StatusException             = "Exception"
)

const (
	InitialStatus      = StatusAwaitingShipment
	DefaultServiceType = "Standard Shipping"
)

// Tones group statuses for badge styling; anything unrecognized is ToneOther.
const (
	TonePending   = "pending"
	ToneInTransit = "in_transit"
	ToneCustoms   = "customs"
	ToneOnHold    = "on_hold"
	ToneDelivery  = "out_for_delivery"
	ToneDelivered = "delivered"
	ToneException = "exception"
	ToneOther     = "other"
)

var lifecycle = []string{
	StatusAwaitingShipment,
	StatusOrderShipped,
	StatusAwaitingFlight,
	StatusFlightDeparture,
	StatusPickedUpByCustoms,
	StatusOnHoldClearance,
	StatusCustomsCleared,
	StatusArrivedAtDistribution,
	StatusOutForDelivery,
	StatusDelivered,
	StatusException,
}

var tones = map[string]string{
	strings.ToLower(StatusAwaitingShipment):      TonePending,
	strings.ToLower(StatusOrderShipped):          ToneInTransit,
	strings.ToLower(StatusAwaitingFlight):        ToneInTransit,
	strings.ToLower(StatusFlightDeparture):       ToneInTransit,
	strings.ToLower(StatusArrivedAtDistribution): ToneInTransit,
	strings.ToLower(StatusPickedUpByCustoms):     ToneCustoms,
	strings.ToLower(StatusCustomsCleared):        ToneCustoms,
	strings.ToLower(StatusOnHoldClearance):       ToneOnHold,
	strings.ToLower(StatusOutForDelivery):        ToneDelivery,
	strings.ToLower(StatusDelivered):             ToneDelivered,
	strings.ToLower(StatusException):             ToneException,
	"in transit":                                 ToneInTransit,
}

// Statuses returns a copy of the lifecycle labels in display order.
func Statuses() []string {
	out := make([]string, len(lifecycle))
	copy(out, lifecycle)
	return out
}

// CanonicalStatus matches s case-insensitively against the lifecycle labels.
func CanonicalStatus(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, st := range lifecycle {
		if strings.EqualFold(st, s) {
			return st, true
		}
	}
	return "", false
}

func StatusTone(status string) string {
	if t, ok := tones[strings.ToLower(strings.TrimSpace(status))]; ok {
		return t
	}
	return ToneOther
}
