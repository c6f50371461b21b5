package notifications

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopfront/retail-backend/pkg/config"
	"github.com/shopfront/retail-backend/pkg/db/models"
	"github.com/shopfront/retail-backend/pkg/enums"
	"github.com/shopfront/retail-backend/pkg/outbox"
	"github.com/shopfront/retail-backend/pkg/outbox/payloads"
)

const (
	SubjectEmailConfirmation = "Please confirm your email to complete registration"
	SubjectPasswordReset     = "Password Reset request"
	SubjectOrderStatus       = "Order status update"
)

const (
	TemplateEmailConfirmation = "email_confirmation"
	TemplatePasswordReset     = "password_reset"
	TemplateOrderPlaced       = "order_placed"
	TemplateOrderStatus       = "order_status"
)

// OrderNotice carries what the order emails need.
type OrderNotice struct {
	OrderID    uuid.UUID
	UserID     uuid.UUID
	Email      string
	From       enums.OrderStatus
	To         enums.OrderStatus
	ItemsCount int
	TotalPrice decimal.Decimal
	Actor      *outbox.ActorRef
}

// Mailer queues transactional email on the outbox. Each method must run on
// the transaction that made the change the email describes; delivery happens
// after commit through the publisher and the mail service subscribed to the
// topics.
type Mailer struct {
	outbox  outbox.Emitter
	baseURL string
}

func NewMailer(emitter outbox.Emitter, cfg config.ShopConfig) (*Mailer, error) {
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("public base url required")
	}
	return &Mailer{outbox: emitter, baseURL: base}, nil
}

// ConfirmationURL is the link mailed after registration.
func (m *Mailer) ConfirmationURL(key string) string {
	return fmt.Sprintf("%s/api/v1/auth/confirm-email/%s", m.baseURL, key)
}

// PasswordResetURL is the link mailed for a reset request.
func (m *Mailer) PasswordResetURL(key string) string {
	return fmt.Sprintf("%s/api/v1/auth/password-reset/%s", m.baseURL, key)
}

func (m *Mailer) EnqueueEmailConfirmation(ctx context.Context, tx *gorm.DB, user *models.User, key string) error {
	if err := checkRecipient(user); err != nil {
		return err
	}
	msg := payloads.EmailMessage{
		To:       user.Email,
		Subject:  SubjectEmailConfirmation,
		Template: TemplateEmailConfirmation,
		Params: map[string]string{
			"username":    user.Username,
			"confirm_url": m.ConfirmationURL(key),
		},
	}
	return m.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventUserRegistered,
		AggregateType: enums.AggregateUser,
		AggregateID:   user.ID,
		Actor:         &outbox.ActorRef{UserID: user.ID, UserType: user.Type},
		Data:          payloads.UserRegisteredEvent{UserID: user.ID, Email: msg},
	})
}

func (m *Mailer) EnqueuePasswordReset(ctx context.Context, tx *gorm.DB, user *models.User, key string) error {
	if err := checkRecipient(user); err != nil {
		return err
	}
	msg := payloads.EmailMessage{
		To:       user.Email,
		Subject:  SubjectPasswordReset,
		Template: TemplatePasswordReset,
		Params: map[string]string{
			"username":  user.Username,
			"token":     key,
			"reset_url": m.PasswordResetURL(key),
		},
	}
	return m.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventPasswordResetRequested,
		AggregateType: enums.AggregateUser,
		AggregateID:   user.ID,
		Data:          payloads.PasswordResetRequestedEvent{UserID: user.ID, Email: msg},
	})
}

// EnqueueOrderPlaced queues the confirmation sent when checkout commits.
func (m *Mailer) EnqueueOrderPlaced(ctx context.Context, tx *gorm.DB, notice OrderNotice) error {
	if notice.OrderID == uuid.Nil || strings.TrimSpace(notice.Email) == "" {
		return fmt.Errorf("order id and recipient required")
	}
	msg := payloads.EmailMessage{
		To:       notice.Email,
		Subject:  SubjectOrderStatus,
		Template: TemplateOrderPlaced,
		Params: map[string]string{
			"order_id":    notice.OrderID.String(),
			"status":      string(enums.OrderStatusOrdered),
			"items_count": fmt.Sprintf("%d", notice.ItemsCount),
			"total_price": notice.TotalPrice.StringFixed(2),
		},
	}
	return m.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   notice.OrderID,
		Actor:         notice.Actor,
		Data: payloads.OrderPlacedEvent{
			OrderID:    notice.OrderID,
			UserID:     notice.UserID,
			ItemsCount: notice.ItemsCount,
			TotalPrice: notice.TotalPrice.StringFixed(2),
			Email:      msg,
		},
	})
}

// EnqueueOrderStatus queues the update sent on every later transition.
func (m *Mailer) EnqueueOrderStatus(ctx context.Context, tx *gorm.DB, notice OrderNotice) error {
	if notice.OrderID == uuid.Nil || strings.TrimSpace(notice.Email) == "" {
		return fmt.Errorf("order id and recipient required")
	}
	msg := payloads.EmailMessage{
		To:       notice.Email,
		Subject:  SubjectOrderStatus,
		Template: TemplateOrderStatus,
		Params: map[string]string{
			"order_id": notice.OrderID.String(),
			"from":     string(notice.From),
			"status":   string(notice.To),
		},
	}
	return m.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   notice.OrderID,
		Actor:         notice.Actor,
		Data: payloads.OrderStatusChangedEvent{
			OrderID: notice.OrderID,
			UserID:  notice.UserID,
			From:    notice.From,
			To:      notice.To,
			Email:   msg,
		},
	})
}

func checkRecipient(user *models.User) error {
	if user == nil || user.ID == uuid.Nil {
		return fmt.Errorf("recipient user required")
	}
	if _, err := mail.ParseAddress(user.Email); err != nil {
		return fmt.Errorf("recipient email invalid: %w", err)
	}
	return nil
}
