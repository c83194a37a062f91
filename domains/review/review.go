package review

import (
	"context"
	"time"
)

// Status is the lifecycle state of a review record. Both sent and failed
// are terminal: a record is never retried, a new post gets a new record.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// FallbackComment is substituted whenever comment generation fails.
const FallbackComment = "Nice post! 👍"

// ReviewRecord tracks one candidate comment through its approval lifecycle.
type ReviewRecord struct {
	ID               uint
	ChannelID        int64
	MessageID        int
	GeneratedComment string
	PostText         string
	// PhotoPath keeps the first photo of the post for single-photo display;
	// it is transient and swept once delivery completes.
	PhotoPath     string
	Status        Status
	SentMessageID int
	CreatedAt     time.Time
	SentAt        *time.Time
}

// Preview is what the reviewer sees alongside a candidate comment.
type Preview struct {
	ChannelName string
	PostText    string
	PhotoPaths  []string
	PostURL     string
}

type ApproveStatus string

const (
	ApproveSent     ApproveStatus = "sent"
	ApproveFailed   ApproveStatus = "failed"
	ApproveNotFound ApproveStatus = "not_found"
)

type ApproveRequest struct {
	RecordID uint `json:"record_id"`
}

type ApproveResult struct {
	Status ApproveStatus `json:"status"`
	// CommentURL links to the posted comment, set only on ApproveSent.
	CommentURL string `json:"comment_url,omitempty"`
}

type IReviewRepository interface {
	InitSchema(ctx context.Context) error
	Create(ctx context.Context, record *ReviewRecord) error
	GetByID(ctx context.Context, id uint) (*ReviewRecord, error)
	GetPendingByID(ctx context.Context, id uint) (*ReviewRecord, error)
	// MarkSent transitions pending → sent, populating sent_message_id and
	// sent_at in the same update. ErrRecordNotFound when the record is
	// missing or no longer pending.
	MarkSent(ctx context.Context, id uint, sentMessageID int, sentAt time.Time) error
	// MarkFailed transitions pending → failed under the same guard.
	MarkFailed(ctx context.Context, id uint) error
	List(ctx context.Context, status Status, limit int) ([]ReviewRecord, error)
	CountByStatus(ctx context.Context) (map[Status]int64, error)
	// PhotoPaths returns every recorded photo path, for temp-file sweeps.
	PhotoPaths(ctx context.Context) ([]string, error)
}

type IReviewUsecase interface {
	Approve(ctx context.Context, recordID uint) (ApproveResult, error)
}

// ICommentGenerator produces a short candidate comment for a post. Failures
// are returned as errors; the pipeline substitutes FallbackComment and never
// lets a generator failure cross further.
type ICommentGenerator interface {
	Generate(ctx context.Context, text string, imageURLs []string, channelDescription, channelName string) (string, error)
}

// ICommentPoster posts the approved comment as a reply in the destination
// chat and returns the platform id of the posted message.
type ICommentPoster interface {
	PostComment(ctx context.Context, chatID int64, replyTo int, text string) (int, error)
}

// IReviewNotifier presents a candidate comment to the reviewer.
type IReviewNotifier interface {
	Present(ctx context.Context, record *ReviewRecord, preview Preview) error
}
