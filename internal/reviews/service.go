package reviews

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shopfront/retail-backend/pkg/db/models"
	pkgerrors "github.com/shopfront/retail-backend/pkg/errors"
	"github.com/shopfront/retail-backend/pkg/logger"
	"github.com/shopfront/retail-backend/pkg/pagination"
)

const (
	minRating     = 1
	maxRating     = 5
	maxTextLength = 2000
)

// AddCommentInput is the review payload.
type AddCommentInput struct {
	Text   string `json:"text" validate:"required,max=2000"`
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
}

// CommentView is a comment with its author's display name.
type CommentView struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Text     string    `json:"text"`
	Rating   int       `json:"rating"`
	PostedAt time.Time `json:"posted_at"`
}

// CommentList is one page of comments.
type CommentList struct {
	Comments   []CommentView `json:"comments"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

type Service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{repo: repo, logg: logg, now: time.Now}, nil
}

func (s *Service) AddComment(ctx context.Context, userID, productID uuid.UUID, input AddCommentInput) (*CommentView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	text := strings.TrimSpace(input.Text)
	if text == "" || len(text) > maxTextLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment text is required").
			WithDetails(map[string]any{"max_length": maxTextLength})
	}
	if input.Rating < minRating || input.Rating > maxRating {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	exists, err := s.repo.ProductExists(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	comment := &models.Comment{
		UserID:    userID,
		ProductID: productID,
		Text:      text,
		Rating:    input.Rating,
		PostedAt:  s.now().UTC(),
	}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create comment")
	}

	logCtx := s.logg.WithUserID(ctx, userID.String())
	s.logg.Info(s.logg.WithField(logCtx, "product_id", productID.String()), "comment added")
	view := newCommentView(*comment)
	return &view, nil
}

func (s *Service) ListComments(ctx context.Context, productID uuid.UUID, cursorValue string, limit int) (*CommentList, error) {
	cursor, err := pagination.ParseCursor(cursorValue)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	exists, err := s.repo.ProductExists(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	rows, next, err := s.repo.List(ctx, productID, limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list comments")
	}
	list := &CommentList{Comments: make([]CommentView, 0, len(rows))}
	for _, row := range rows {
		list.Comments = append(list.Comments, newCommentView(row))
	}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

func newCommentView(c models.Comment) CommentView {
	view := CommentView{
		ID:       c.ID,
		UserID:   c.UserID,
		Text:     c.Text,
		Rating:   c.Rating,
		PostedAt: c.PostedAt,
	}
	if c.User != nil {
		view.Username = c.User.Username
	}
	return view
}
