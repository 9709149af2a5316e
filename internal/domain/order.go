package domain

import "time"

const (
	OrderStatusPlaced         = "Order Placed"
	OrderStatusPacking        = "Packing"
	OrderStatusShipped        = "Shipped"
	OrderStatusOutForDelivery = "Out for delivery"
	OrderStatusDelivered      = "Delivered"

	PaymentMethodCOD = "COD"
)

// OrderStatuses lists the values accepted by the admin status update, in fulfilment order.
var OrderStatuses = []string{
	OrderStatusPlaced,
	OrderStatusPacking,
	OrderStatusShipped,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
}

type OrderItem struct {
	ProductID string  `json:"_id" dynamodbav:"product_id" validate:"required"`
	Name      string  `json:"name" dynamodbav:"name" validate:"required"`
	Price     float64 `json:"price" dynamodbav:"price" validate:"gte=0"`
	Quantity  int     `json:"quantity" dynamodbav:"quantity" validate:"gt=0"`
	Size      string  `json:"size" dynamodbav:"size"`
}

type Address struct {
	FirstName string `json:"firstName" dynamodbav:"first_name" validate:"required"`
	LastName  string `json:"lastName" dynamodbav:"last_name" validate:"required"`
	Email     string `json:"email" dynamodbav:"email" validate:"omitempty,email"`
	Street    string `json:"street" dynamodbav:"street" validate:"required"`
	City      string `json:"city" dynamodbav:"city" validate:"required"`
	State     string `json:"state" dynamodbav:"state"`
	Zipcode   string `json:"zipcode" dynamodbav:"zipcode"`
	Country   string `json:"country" dynamodbav:"country" validate:"required"`
	Phone     string `json:"phone" dynamodbav:"phone" validate:"required"`
}

type Order struct {
	OrderID       string      `json:"_id" dynamodbav:"order_id"`
	UserID        string      `json:"userId" dynamodbav:"user_id"`
	Items         []OrderItem `json:"items" dynamodbav:"items"`
	Amount        float64     `json:"amount" dynamodbav:"amount"`
	Address       Address     `json:"address" dynamodbav:"address"`
	Status        string      `json:"status" dynamodbav:"status"`
	PaymentMethod string      `json:"paymentMethod" dynamodbav:"payment_method"`
	Payment       bool        `json:"payment" dynamodbav:"payment"`
	CreatedAt     time.Time   `json:"date" dynamodbav:"created_at"`
	UpdatedAt     time.Time   `json:"updated" dynamodbav:"updated_at"`
}

type PlaceOrderRequest struct {
	Items   []OrderItem `json:"items" validate:"required,min=1,dive"`
	Amount  float64     `json:"amount" validate:"gt=0"`
	Address Address     `json:"address"`
}
