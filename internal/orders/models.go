package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentCanceled PaymentStatus = "CANCELED"
)

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "PENDING"
	DeliveryShipped   DeliveryStatus = "SHIPPED"
	DeliveryDelivered DeliveryStatus = "DELIVERED"
	DeliveryCanceled  DeliveryStatus = "CANCELED"
)

// DateLayout is the wire format of order dates.
const DateLayout = "2006-01-02"

type Order struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	Total           decimal.Decimal `json:"total"`
	UserEmail       string          `json:"email"`
	OrderDate       time.Time       `json:"date"`
	ShippingAddress string          `json:"shippingAddress"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	DeliveryStatus  DeliveryStatus  `json:"deliveryStatus"`
	Items           []OrderItem     `json:"items"`
}

// OrderItem is written together with its order and never changes afterwards.
type OrderItem struct {
	SKUCode  string `json:"skuCode"`
	Quantity int    `json:"quantity"`
}

type UserDetails struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type PlaceOrderRequest struct {
	Items           []OrderItem     `json:"items"`
	Total           decimal.Decimal `json:"total"`
	ShippingAddress string          `json:"shippingAddress"`
	Date            string          `json:"date"` // YYYY-MM-DD, optional
	UserDetails     UserDetails     `json:"userDetails"`
}
