package payloads

import (
	"github.com/google/uuid"
	"github.com/shopfront/retail-backend/pkg/enums"
)

// EmailMessage is the rendered request handed to the mail delivery service.
type EmailMessage struct {
	To       string            `json:"to"`
	Subject  string            `json:"subject"`
	Template string            `json:"template"`
	Params   map[string]string `json:"params,omitempty"`
}

// UserRegisteredEvent asks for the address confirmation email.
type UserRegisteredEvent struct {
	UserID uuid.UUID    `json:"user_id"`
	Email  EmailMessage `json:"email"`
}

// PasswordResetRequestedEvent asks for the password reset email.
type PasswordResetRequestedEvent struct {
	UserID uuid.UUID    `json:"user_id"`
	Email  EmailMessage `json:"email"`
}

// OrderPlacedEvent is emitted once checkout commits.
type OrderPlacedEvent struct {
	OrderID    uuid.UUID    `json:"order_id"`
	UserID     uuid.UUID    `json:"user_id"`
	ItemsCount int          `json:"items_count"`
	TotalPrice string       `json:"total_price"`
	Email      EmailMessage `json:"email"`
}

// OrderStatusChangedEvent is emitted for every transition after checkout.
type OrderStatusChangedEvent struct {
	OrderID uuid.UUID         `json:"order_id"`
	UserID  uuid.UUID         `json:"user_id"`
	From    enums.OrderStatus `json:"from"`
	To      enums.OrderStatus `json:"to"`
	Email   EmailMessage      `json:"email"`
}
