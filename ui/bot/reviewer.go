// Package bot is the reviewer-facing control surface: it presents candidate
// comments to the single admin reviewer over a private Telegram chat and
// feeds approval actions back into the review dispatcher.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	domainReview "github.com/agromov/postwatch/domains/review"
	"github.com/agromov/postwatch/infrastructure/telegram"
	"github.com/agromov/postwatch/pkg/ratelimit"
	"github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v3"
)

const (
	previewTextLimit = 500

	accessDeniedNotice   = "⛔ You don't have access to this bot."
	approvedNotice       = "✅ Comment posted!"
	approveFailedNotice  = "❌ Failed to post the comment"
	notFoundNotice       = "❌ Comment not found or already handled"
	approveErrorNotice   = "❌ Something went wrong while posting the comment"
	chooseActionFallback = "Choose an action:"
)

var btnApprove = tele.Btn{Unique: "approve"}

// Reviewer wires the admin chat: /start, candidate previews and the approve
// callback. Every outbound send goes through the rate-limited sender.
type Reviewer struct {
	bot     *tele.Bot
	adminID int64
	reviews domainReview.IReviewUsecase
	policy  ratelimit.Policy
}

func NewReviewer(bot *tele.Bot, adminID int64, reviews domainReview.IReviewUsecase, policy ratelimit.Policy) *Reviewer {
	return &Reviewer{
		bot:     bot,
		adminID: adminID,
		reviews: reviews,
		policy:  policy,
	}
}

func (r *Reviewer) Register() {
	r.bot.Handle("/start", r.handleStart)
	r.bot.Handle(&btnApprove, r.handleApprove)
}

func (r *Reviewer) handleStart(c tele.Context) error {
	if !r.isAdmin(c.Sender()) {
		return c.Send(accessDeniedNotice)
	}
	return c.Send("🤖 Channel monitor bot\n\nThe bot is active and watching the configured channels. You will be notified about new posts automatically.")
}

func (r *Reviewer) handleApprove(c tele.Context) error {
	if !r.isAdmin(c.Sender()) {
		return c.Respond(&tele.CallbackResponse{Text: accessDeniedNotice})
	}

	recordID, err := strconv.ParseUint(strings.TrimSpace(c.Data()), 10, 32)
	if err != nil || recordID == 0 {
		logrus.Warnf("[REVIEWER] Malformed approve callback data %q", c.Data())
		return c.Respond(&tele.CallbackResponse{Text: notFoundNotice})
	}

	result, err := r.reviews.Approve(context.Background(), uint(recordID))
	if err != nil {
		logrus.WithError(err).Errorf("[REVIEWER] Approve of record %d failed", recordID)
		return c.Respond(&tele.CallbackResponse{Text: approveErrorNotice})
	}

	switch result.Status {
	case domainReview.ApproveSent:
		if result.CommentURL != "" {
			markup := &tele.ReplyMarkup{}
			markup.Inline(markup.Row(markup.URL("👀 View comment", result.CommentURL)))
			if _, err := r.bot.EditReplyMarkup(c.Message(), markup); err != nil {
				logrus.WithError(err).Warn("[REVIEWER] Failed to attach view-comment button")
			}
		}
		return c.Respond(&tele.CallbackResponse{Text: approvedNotice})
	case domainReview.ApproveFailed:
		return c.Respond(&tele.CallbackResponse{Text: approveFailedNotice})
	default:
		return c.Respond(&tele.CallbackResponse{Text: notFoundNotice})
	}
}

// Present sends the candidate comment preview to the reviewer: post header,
// truncated text, the generated comment and the action buttons. Albums go
// out as a media group with the buttons in a follow-up message.
func (r *Reviewer) Present(ctx context.Context, record *domainReview.ReviewRecord, preview domainReview.Preview) error {
	text := previewText(record, preview)
	markup := actionMarkup(record.ID, preview.PostURL)
	admin := tele.ChatID(r.adminID)

	opts := &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: markup}

	var err error
	switch {
	case len(preview.PhotoPaths) > 1:
		album := make(tele.Album, 0, len(preview.PhotoPaths))
		for i, path := range preview.PhotoPaths {
			photo := &tele.Photo{File: tele.FromDisk(path)}
			if i == 0 {
				photo.Caption = text
			}
			album = append(album, photo)
		}
		_, err = ratelimit.Do(ctx, r.policy, func(ctx context.Context) ([]tele.Message, error) {
			msgs, sendErr := r.bot.SendAlbum(admin, album, &tele.SendOptions{ParseMode: tele.ModeHTML})
			return msgs, telegram.WrapFloodError(sendErr)
		})
		if err != nil {
			break
		}
		// Buttons cannot ride on a media group; they follow right behind.
		_, err = ratelimit.Do(ctx, r.policy, func(ctx context.Context) (*tele.Message, error) {
			msg, sendErr := r.bot.Send(admin, chooseActionFallback, opts)
			return msg, telegram.WrapFloodError(sendErr)
		})
	case len(preview.PhotoPaths) == 1:
		photo := &tele.Photo{File: tele.FromDisk(preview.PhotoPaths[0]), Caption: text}
		_, err = ratelimit.Do(ctx, r.policy, func(ctx context.Context) (*tele.Message, error) {
			msg, sendErr := r.bot.Send(admin, photo, opts)
			return msg, telegram.WrapFloodError(sendErr)
		})
	default:
		_, err = ratelimit.Do(ctx, r.policy, func(ctx context.Context) (*tele.Message, error) {
			msg, sendErr := r.bot.Send(admin, text, opts)
			return msg, telegram.WrapFloodError(sendErr)
		})
	}

	if err != nil {
		return fmt.Errorf("failed to present record %d to reviewer: %w", record.ID, err)
	}
	logrus.Infof("[REVIEWER] Presented record %d for channel %d", record.ID, record.ChannelID)
	return nil
}

func (r *Reviewer) isAdmin(sender *tele.User) bool {
	return sender != nil && sender.ID == r.adminID
}

func previewText(record *domainReview.ReviewRecord, preview domainReview.Preview) string {
	postText := preview.PostText
	if runes := []rune(postText); len(runes) > previewTextLimit {
		postText = string(runes[:previewTextLimit]) + "..."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📢 <b>New post in channel: %s</b>\n\n", preview.ChannelName)
	fmt.Fprintf(&b, "<b>Text:</b> %s\n\n", postText)
	fmt.Fprintf(&b, "<b>Comment:</b> %s", record.GeneratedComment)
	return b.String()
}

func actionMarkup(recordID uint, postURL string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}

	var buttons []tele.Btn
	if postURL != "" {
		buttons = append(buttons, markup.URL("👀 View post", postURL))
	}
	buttons = append(buttons, markup.Data("🔴 Post comment", btnApprove.Unique, strconv.FormatUint(uint64(recordID), 10)))

	markup.Inline(markup.Row(buttons...))
	return markup
}
