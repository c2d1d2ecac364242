package orders

import "github.com/ariefcatur/go-order-fulfillment/internal/apperr"

type Action string

const (
	ActionPay     Action = "pay"
	ActionCancel  Action = "cancel"
	ActionShip    Action = "ship"
	ActionDeliver Action = "deliver"
)

// Messages returned to the caller after a successful transition.
var successMessage = map[Action]string{
	ActionPay:     "Payment successfully done",
	ActionCancel:  "Order Canceled successfully",
	ActionShip:    "Order shipped successfully",
	ActionDeliver: "Order delivered successfully",
}

const (
	msgAlreadyPaid       = "Your already did payment"
	msgCanceled          = "Order is already canceled"
	msgDelivered         = "Order is already delivered"
	msgCancelAfterPay    = "Can't cancel after payment"
	msgShipUnpaid        = "Can't ship unpaid orders"
	msgAlreadyShipped    = "Order is already shipped"
	msgDeliverBeforeShip = "Can't deliver before shipping"
)

// IsTerminal reports whether no further transition is possible.
func (o Order) IsTerminal() bool {
	return o.PaymentStatus == PaymentCanceled ||
		o.DeliveryStatus == DeliveryCanceled ||
		o.DeliveryStatus == DeliveryDelivered
}

// CheckTransition returns nil when action is legal from the order's current
// state and a Conflict error explaining the refusal otherwise.
func CheckTransition(o Order, a Action) error {
	if o.PaymentStatus == PaymentCanceled || o.DeliveryStatus == DeliveryCanceled {
		return apperr.Conflict(msgCanceled)
	}
	switch a {
	case ActionPay:
		if o.PaymentStatus != PaymentUnpaid {
			return apperr.Conflict(msgAlreadyPaid)
		}
	case ActionCancel:
		if o.PaymentStatus == PaymentPaid {
			return apperr.Conflict(msgCancelAfterPay)
		}
	case ActionShip:
		if o.PaymentStatus != PaymentPaid {
			return apperr.Conflict(msgShipUnpaid)
		}
		if o.DeliveryStatus == DeliveryDelivered {
			return apperr.Conflict(msgDelivered)
		}
		if o.DeliveryStatus != DeliveryPending {
			return apperr.Conflict(msgAlreadyShipped)
		}
	case ActionDeliver:
		if o.DeliveryStatus == DeliveryDelivered {
			return apperr.Conflict(msgDelivered)
		}
		if o.DeliveryStatus != DeliveryShipped {
			return apperr.Conflict(msgDeliverBeforeShip)
		}
	default:
		return apperr.Validation("unknown action %q", a)
	}
	return nil
}

// apply moves o to the state that follows a. CheckTransition must have
// accepted it.
func apply(o *Order, a Action) {
	switch a {
	case ActionPay:
		o.PaymentStatus = PaymentPaid
	case ActionCancel:
		o.PaymentStatus = PaymentCanceled
		o.DeliveryStatus = DeliveryCanceled
	case ActionShip:
		o.DeliveryStatus = DeliveryShipped
	case ActionDeliver:
		o.DeliveryStatus = DeliveryDelivered
	}
}
