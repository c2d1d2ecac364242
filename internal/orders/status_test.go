package orders

import (
	"testing"

	"github.com/ariefcatur/go-order-fulfillment/internal/apperr"
	"github.com/stretchr/testify/assert"
)

func TestTransitionTable(t *testing.T) {
	type state struct {
		p PaymentStatus
		d DeliveryStatus
	}
	reachable := []state{
		{PaymentUnpaid, DeliveryPending},
		{PaymentPaid, DeliveryPending},
		{PaymentPaid, DeliveryShipped},
		{PaymentPaid, DeliveryDelivered},
		{PaymentCanceled, DeliveryCanceled},
	}
	legal := map[state]map[Action]state{
		{PaymentUnpaid, DeliveryPending}: {
			ActionPay:    {PaymentPaid, DeliveryPending},
			ActionCancel: {PaymentCanceled, DeliveryCanceled},
		},
		{PaymentPaid, DeliveryPending}: {
			ActionShip: {PaymentPaid, DeliveryShipped},
		},
		{PaymentPaid, DeliveryShipped}: {
			ActionDeliver: {PaymentPaid, DeliveryDelivered},
		},
	}

	for _, from := range reachable {
		for _, a := range []Action{ActionPay, ActionCancel, ActionShip, ActionDeliver} {
			o := Order{PaymentStatus: from.p, DeliveryStatus: from.d}
			err := CheckTransition(o, a)

			want, ok := legal[from][a]
			if !ok {
				assert.True(t, apperr.Is(err, apperr.KindConflict), "%s from %v", a, from)
				continue
			}
			if assert.NoError(t, err, "%s from %v", a, from) {
				apply(&o, a)
				assert.Equal(t, want, state{o.PaymentStatus, o.DeliveryStatus}, "%s from %v", a, from)
			}
		}
	}
}

func TestTransitionMessages(t *testing.T) {
	cases := []struct {
		o    Order
		a    Action
		want string
	}{
		{Order{PaymentStatus: PaymentPaid, DeliveryStatus: DeliveryPending}, ActionPay, "Your already did payment"},
		{Order{PaymentStatus: PaymentPaid, DeliveryStatus: DeliveryDelivered}, ActionCancel, "Can't cancel after payment"},
		{Order{PaymentStatus: PaymentUnpaid, DeliveryStatus: DeliveryPending}, ActionShip, "Can't ship unpaid orders"},
		{Order{PaymentStatus: PaymentPaid, DeliveryStatus: DeliveryPending}, ActionDeliver, "Can't deliver before shipping"},
		{Order{PaymentStatus: PaymentCanceled, DeliveryStatus: DeliveryCanceled}, ActionPay, "Order is already canceled"},
	}
	for _, c := range cases {
		err := CheckTransition(c.o, c.a)
		assert.EqualError(t, err, c.want)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, Order{PaymentStatus: PaymentPaid, DeliveryStatus: DeliveryShipped}.IsTerminal())
	assert.True(t, Order{PaymentStatus: PaymentPaid, DeliveryStatus: DeliveryDelivered}.IsTerminal())
	assert.True(t, Order{PaymentStatus: PaymentCanceled, DeliveryStatus: DeliveryCanceled}.IsTerminal())
}
