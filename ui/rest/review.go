package rest

import (
	"errors"
	"time"

	domainReview "github.com/agromov/postwatch/domains/review"
	pkgError "github.com/agromov/postwatch/pkg/error"
	"github.com/gofiber/fiber/v2"
)

type reviewHandler struct {
	repo domainReview.IReviewRepository
}

// InitRestReview exposes read-only access to review records: recent records
// with an optional status filter, and per-status counts.
func InitRestReview(app fiber.Router, repo domainReview.IReviewRepository) {
	handler := &reviewHandler{repo: repo}
	app.Get("/reviews", handler.list)
	app.Get("/reviews/stats", handler.stats)
	app.Get("/reviews/:id", handler.get)
}

// statusCoder is implemented by the typed errors in pkg/error.
type statusCoder interface {
	error
	ErrCode() string
	StatusCode() int
}

func respondError(c *fiber.Ctx, err error) error {
	var coded statusCoder
	if errors.As(err, &coded) {
		return c.Status(coded.StatusCode()).JSON(fiber.Map{
			"code":  coded.ErrCode(),
			"error": coded.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

type reviewResponse struct {
	ID               uint       `json:"id"`
	ChannelID        int64      `json:"channel_id"`
	MessageID        int        `json:"message_id"`
	GeneratedComment string     `json:"generated_comment"`
	PostText         string     `json:"post_text"`
	Status           string     `json:"status"`
	SentMessageID    int        `json:"sent_message_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	SentAt           *time.Time `json:"sent_at,omitempty"`
}

func (h *reviewHandler) list(c *fiber.Ctx) error {
	status := domainReview.Status(c.Query("status"))
	switch status {
	case "", domainReview.StatusPending, domainReview.StatusSent, domainReview.StatusFailed:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unknown status: " + string(status),
		})
	}

	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}

	records, err := h.repo.List(c.Context(), status, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	out := make([]reviewResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toReviewResponse(record))
	}
	return c.JSON(fiber.Map{"reviews": out})
}

func (h *reviewHandler) get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return respondError(c, pkgError.ValidationError("id must be a positive integer"))
	}

	record, err := h.repo.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, domainReview.ErrRecordNotFound) {
			return respondError(c, pkgError.NotFoundError("review record not found"))
		}
		return respondError(c, err)
	}
	return c.JSON(toReviewResponse(*record))
}

func (h *reviewHandler) stats(c *fiber.Ctx) error {
	counts, err := h.repo.CountByStatus(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"pending": counts[domainReview.StatusPending],
		"sent":    counts[domainReview.StatusSent],
		"failed":  counts[domainReview.StatusFailed],
	})
}

func toReviewResponse(record domainReview.ReviewRecord) reviewResponse {
	return reviewResponse{
		ID:               record.ID,
		ChannelID:        record.ChannelID,
		MessageID:        record.MessageID,
		GeneratedComment: record.GeneratedComment,
		PostText:         record.PostText,
		Status:           string(record.Status),
		SentMessageID:    record.SentMessageID,
		CreatedAt:        record.CreatedAt,
		SentAt:           record.SentAt,
	}
}
