package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agromov/postwatch/config"
	domainReview "github.com/agromov/postwatch/domains/review"
	"github.com/agromov/postwatch/pkg/ratelimit"
	"github.com/agromov/postwatch/pkg/tgutil"
	"github.com/agromov/postwatch/validations"
	"github.com/sirupsen/logrus"
)

type serviceReview struct {
	repo     domainReview.IReviewRepository
	poster   domainReview.ICommentPoster
	channels *config.ChannelRegistry
	policy   ratelimit.Policy
}

func NewReviewService(
	repo domainReview.IReviewRepository,
	poster domainReview.ICommentPoster,
	channels *config.ChannelRegistry,
	policy ratelimit.Policy,
) domainReview.IReviewUsecase {
	return &serviceReview{
		repo:     repo,
		poster:   poster,
		channels: channels,
		policy:   policy,
	}
}

// Approve reacts to the reviewer's approval of a candidate comment: it posts
// the comment as a reply in the destination chat and moves the record to its
// terminal state. A duplicate approval finds the record no longer pending
// and reports not-found, making the operation idempotent.
func (service *serviceReview) Approve(ctx context.Context, recordID uint) (domainReview.ApproveResult, error) {
	if err := validations.ValidateApprove(ctx, domainReview.ApproveRequest{RecordID: recordID}); err != nil {
		// A malformed id can never match a record; the reviewer gets the same
		// benign notice as for an unknown one.
		logrus.Warnf("[REVIEW] Rejecting malformed approve request: %v", err)
		return domainReview.ApproveResult{Status: domainReview.ApproveNotFound}, nil
	}

	record, err := service.repo.GetPendingByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, domainReview.ErrRecordNotFound) {
			service.logResolvedRecord(ctx, recordID)
			return domainReview.ApproveResult{Status: domainReview.ApproveNotFound}, nil
		}
		return domainReview.ApproveResult{}, fmt.Errorf("failed to load review record %d: %w", recordID, err)
	}

	channel, ok := service.channels.ByChannelID(record.ChannelID)
	if !ok {
		// The mapping was removed after the record was created; delivery is
		// impossible, which is a failed send from the record's point of view.
		logrus.Errorf("[REVIEW] No destination chat for channel %d, failing record %d", record.ChannelID, record.ID)
		return service.fail(ctx, record.ID)
	}

	sentMessageID, err := ratelimit.Do(ctx, service.policy, func(ctx context.Context) (int, error) {
		return service.poster.PostComment(ctx, channel.ChatID, record.MessageID, record.GeneratedComment)
	})
	if err != nil {
		logrus.WithError(err).Errorf("[REVIEW] Failed to post comment for record %d", record.ID)
		return service.fail(ctx, record.ID)
	}

	sentAt := time.Now().UTC()
	if err := service.repo.MarkSent(ctx, record.ID, sentMessageID, sentAt); err != nil {
		if errors.Is(err, domainReview.ErrRecordNotFound) {
			// Lost a race with another resolution of the same record.
			return domainReview.ApproveResult{Status: domainReview.ApproveNotFound}, nil
		}
		return domainReview.ApproveResult{}, fmt.Errorf("failed to mark record %d sent: %w", record.ID, err)
	}

	logrus.WithFields(logrus.Fields{
		"record_id":       record.ID,
		"sent_message_id": sentMessageID,
	}).Info("[REVIEW] Comment posted")

	return domainReview.ApproveResult{
		Status:     domainReview.ApproveSent,
		CommentURL: tgutil.MessageURL(channel.ChatID, sentMessageID),
	}, nil
}

func (service *serviceReview) fail(ctx context.Context, recordID uint) (domainReview.ApproveResult, error) {
	if err := service.repo.MarkFailed(ctx, recordID); err != nil && !errors.Is(err, domainReview.ErrRecordNotFound) {
		logrus.WithError(err).Errorf("[REVIEW] Failed to mark record %d failed", recordID)
	}
	return domainReview.ApproveResult{Status: domainReview.ApproveFailed}, nil
}

// logResolvedRecord mirrors the pending lookup miss with a plain lookup so
// the log tells whether the id is unknown or merely already handled.
func (service *serviceReview) logResolvedRecord(ctx context.Context, recordID uint) {
	record, err := service.repo.GetByID(ctx, recordID)
	if err != nil {
		logrus.Warnf("[REVIEW] Record %d not found", recordID)
		return
	}
	logrus.Infof("[REVIEW] Record %d already handled (status=%s)", recordID, record.Status)
}
