package telegram

import (
	"context"
	"fmt"

	domainReview "github.com/agromov/postwatch/domains/review"
	tele "gopkg.in/telebot.v3"
)

// CommentPoster posts approved comments as replies in the destination chat.
type CommentPoster struct {
	bot *tele.Bot
}

func NewCommentPoster(bot *tele.Bot) domainReview.ICommentPoster {
	return &CommentPoster{bot: bot}
}

// PostComment replies to the post's forwarded copy in the discussion chat.
// Flood-control errors come back as ratelimit.FloodWaitError so the caller's
// retry loop can honor the mandated wait.
func (p *CommentPoster) PostComment(ctx context.Context, chatID int64, replyTo int, text string) (int, error) {
	_ = ctx // telebot calls carry no context

	sent, err := p.bot.Send(tele.ChatID(chatID), text, &tele.SendOptions{
		ReplyTo: &tele.Message{ID: replyTo, Chat: &tele.Chat{ID: chatID}},
	})
	if err != nil {
		return 0, WrapFloodError(fmt.Errorf("failed to post comment in chat %d: %w", chatID, err))
	}
	return sent.ID, nil
}
