package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/agromov/postwatch/config"
	domainPost "github.com/agromov/postwatch/domains/post"
	domainReview "github.com/agromov/postwatch/domains/review"
	"github.com/agromov/postwatch/pkg/tgutil"
	"github.com/sirupsen/logrus"
)

// IImageEncoder turns a downloaded photo into something the generator can
// consume (a base64 data URL).
type IImageEncoder interface {
	EncodeDataURL(path string) (string, error)
}

// IPipelineUsecase takes a fully assembled logical post to a pending review
// record with the reviewer notified.
type IPipelineUsecase interface {
	HandlePost(ctx context.Context, post domainPost.LogicalPost) error
}

type servicePipeline struct {
	repo      domainReview.IReviewRepository
	generator domainReview.ICommentGenerator
	notifier  domainReview.IReviewNotifier
	channels  *config.ChannelRegistry
	encoder   IImageEncoder
}

func NewPipelineService(
	repo domainReview.IReviewRepository,
	generator domainReview.ICommentGenerator,
	notifier domainReview.IReviewNotifier,
	channels *config.ChannelRegistry,
	encoder IImageEncoder,
) IPipelineUsecase {
	return &servicePipeline{
		repo:      repo,
		generator: generator,
		notifier:  notifier,
		channels:  channels,
		encoder:   encoder,
	}
}

// HandlePost generates a candidate comment for the post, persists a pending
// review record and presents it to the reviewer. Generator failures degrade
// to the fixed fallback comment; a missing destination mapping drops the
// post before any record exists, since delivery would be impossible.
func (service *servicePipeline) HandlePost(ctx context.Context, post domainPost.LogicalPost) error {
	channel, ok := service.channels.ByChannelID(post.ChannelID)
	if !ok {
		logrus.Warnf("[PIPELINE] No destination chat configured for channel %d, dropping post %d",
			post.ChannelID, post.MessageID)
		return nil
	}

	comment := service.generateComment(ctx, post, channel)

	record := &domainReview.ReviewRecord{
		ChannelID:        post.ChannelID,
		MessageID:        post.MessageID,
		GeneratedComment: comment,
		PostText:         post.Text,
	}
	if len(post.PhotoPaths) > 0 {
		record.PhotoPath = post.PhotoPaths[0]
	}

	if err := service.repo.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to create review record for channel %d message %d: %w",
			post.ChannelID, post.MessageID, err)
	}
	logrus.WithFields(logrus.Fields{
		"record_id":  record.ID,
		"channel":    channel.Name,
		"message_id": post.MessageID,
	}).Info("[PIPELINE] Review record created")

	preview := domainReview.Preview{
		ChannelName: channel.Name,
		PostText:    post.Text,
		PhotoPaths:  post.PhotoPaths,
		PostURL:     tgutil.MessageURL(channel.ChatID, post.MessageID),
	}
	if err := service.notifier.Present(ctx, record, preview); err != nil {
		// The record stays pending; it is still listed over the REST surface.
		logrus.WithError(err).Errorf("[PIPELINE] Failed to notify reviewer about record %d", record.ID)
	}
	return nil
}

func (service *servicePipeline) generateComment(ctx context.Context, post domainPost.LogicalPost, channel config.Channel) string {
	comment, err := service.generator.Generate(ctx, post.Text, service.encodePhotos(post.PhotoPaths), channel.Description, channel.Name)
	if err != nil {
		logrus.WithError(err).Warnf("[PIPELINE] Comment generation failed for message %d, using fallback", post.MessageID)
		return domainReview.FallbackComment
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return domainReview.FallbackComment
	}
	return comment
}

// encodePhotos converts downloaded photos to data URLs, skipping any that
// fail to encode.
func (service *servicePipeline) encodePhotos(paths []string) []string {
	if service.encoder == nil {
		return nil
	}
	urls := make([]string, 0, len(paths))
	for _, path := range paths {
		url, err := service.encoder.EncodeDataURL(path)
		if err != nil {
			logrus.WithError(err).Warnf("[PIPELINE] Failed to encode photo %s", path)
			continue
		}
		urls = append(urls, url)
	}
	return urls
}
