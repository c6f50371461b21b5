package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shopfront/retail-backend/pkg/config"
	"github.com/shopfront/retail-backend/pkg/db/models"
	"github.com/shopfront/retail-backend/pkg/enums"
	"github.com/shopfront/retail-backend/pkg/outbox"
	"github.com/shopfront/retail-backend/pkg/outbox/payloads"
)

type recordingEmitter struct {
	events []outbox.DomainEvent
	err    error
}

func (r *recordingEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func newTestMailer(t *testing.T) (*Mailer, *recordingEmitter) {
	t.Helper()
	emitter := &recordingEmitter{}
	mailer, err := NewMailer(emitter, config.ShopConfig{PublicBaseURL: "https://shop.example.com/"})
	require.NoError(t, err)
	return mailer, emitter
}

func TestEnqueueEmailConfirmation(t *testing.T) {
	mailer, emitter := newTestMailer(t)
	user := &models.User{ID: uuid.New(), Email: "ann@example.com", Username: "ann", Type: enums.UserTypeBuyer}

	require.NoError(t, mailer.EnqueueEmailConfirmation(context.Background(), nil, user, "abc123"))
	require.Len(t, emitter.events, 1)
	event := emitter.events[0]
	assert.Equal(t, enums.EventUserRegistered, event.EventType)
	assert.Equal(t, enums.AggregateUser, event.AggregateType)
	assert.Equal(t, user.ID, event.AggregateID)

	data, ok := event.Data.(payloads.UserRegisteredEvent)
	require.True(t, ok)
	assert.Equal(t, "ann@example.com", data.Email.To)
	assert.Equal(t, SubjectEmailConfirmation, data.Email.Subject)
	assert.Equal(t, "https://shop.example.com/api/v1/auth/confirm-email/abc123", data.Email.Params["confirm_url"])
}

func TestEnqueuePasswordReset(t *testing.T) {
	mailer, emitter := newTestMailer(t)
	user := &models.User{ID: uuid.New(), Email: "ann@example.com", Username: "ann"}

	require.NoError(t, mailer.EnqueuePasswordReset(context.Background(), nil, user, "k"))
	require.Len(t, emitter.events, 1)
	data := emitter.events[0].Data.(payloads.PasswordResetRequestedEvent)
	assert.Equal(t, SubjectPasswordReset, data.Email.Subject)
	assert.Equal(t, "k", data.Email.Params["token"])
	assert.Equal(t, enums.EventPasswordResetRequested, emitter.events[0].EventType)
}

func TestEnqueueRejectsBadRecipient(t *testing.T) {
	mailer, emitter := newTestMailer(t)

	err := mailer.EnqueueEmailConfirmation(context.Background(), nil, &models.User{ID: uuid.New(), Email: "nope"}, "k")
	assert.Error(t, err)
	err = mailer.EnqueuePasswordReset(context.Background(), nil, nil, "k")
	assert.Error(t, err)
	assert.Empty(t, emitter.events)
}

func TestEnqueueOrderPlaced(t *testing.T) {
	mailer, emitter := newTestMailer(t)
	notice := OrderNotice{
		OrderID:    uuid.New(),
		UserID:     uuid.New(),
		Email:      "ann@example.com",
		ItemsCount: 3,
		TotalPrice: decimal.RequireFromString("25"),
	}

	require.NoError(t, mailer.EnqueueOrderPlaced(context.Background(), nil, notice))
	require.Len(t, emitter.events, 1)
	event := emitter.events[0]
	assert.Equal(t, enums.EventOrderPlaced, event.EventType)
	assert.Equal(t, notice.OrderID, event.AggregateID)
	data := event.Data.(payloads.OrderPlacedEvent)
	assert.Equal(t, "25.00", data.TotalPrice)
	assert.Equal(t, 3, data.ItemsCount)
	assert.Equal(t, SubjectOrderStatus, data.Email.Subject)
	assert.Equal(t, TemplateOrderPlaced, data.Email.Template)
}

func TestEnqueueOrderStatus(t *testing.T) {
	mailer, emitter := newTestMailer(t)
	notice := OrderNotice{
		OrderID: uuid.New(),
		UserID:  uuid.New(),
		Email:   "ann@example.com",
		From:    enums.OrderStatusOrdered,
		To:      enums.OrderStatusConfirmed,
	}

	require.NoError(t, mailer.EnqueueOrderStatus(context.Background(), nil, notice))
	data := emitter.events[0].Data.(payloads.OrderStatusChangedEvent)
	assert.Equal(t, enums.OrderStatusOrdered, data.From)
	assert.Equal(t, enums.OrderStatusConfirmed, data.To)
	assert.Equal(t, "confirmed", data.Email.Params["status"])
}

func TestEmitterErrorsPropagate(t *testing.T) {
	mailer, emitter := newTestMailer(t)
	emitter.err = errors.New("insert failed")

	err := mailer.EnqueueOrderStatus(context.Background(), nil, OrderNotice{OrderID: uuid.New(), Email: "a@b.co"})
	assert.EqualError(t, err, "insert failed")
}

func TestNewMailerValidatesDependencies(t *testing.T) {
	_, err := NewMailer(nil, config.ShopConfig{PublicBaseURL: "http://x"})
	assert.Error(t, err)
	_, err = NewMailer(&recordingEmitter{}, config.ShopConfig{})
	assert.Error(t, err)
}
