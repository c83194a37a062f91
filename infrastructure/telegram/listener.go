package telegram

import (
	"context"
	"strconv"
	"strings"

	"github.com/agromov/postwatch/config"
	domainPost "github.com/agromov/postwatch/domains/post"
	"github.com/agromov/postwatch/pkg/postworker"
	"github.com/agromov/postwatch/usecase"
	"github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v3"
)

// photoFetcher is the slice of MediaStore the listener needs.
type photoFetcher interface {
	DownloadPhoto(photo *tele.Photo) (string, error)
}

// Listener subscribes to channel-post updates and feeds the group
// aggregator. Channels are resolved through an immutable registry rather
// than per-channel closures, so there is no loop-variable capture anywhere
// in the routing path.
type Listener struct {
	bot        *tele.Bot
	channels   *config.ChannelRegistry
	pool       *postworker.Pool
	aggregator *usecase.GroupAggregator
	media      photoFetcher
}

func NewListener(
	bot *tele.Bot,
	channels *config.ChannelRegistry,
	pool *postworker.Pool,
	aggregator *usecase.GroupAggregator,
	media photoFetcher,
) *Listener {
	return &Listener{
		bot:        bot,
		channels:   channels,
		pool:       pool,
		aggregator: aggregator,
		media:      media,
	}
}

// Register installs the channel-post handler.
func (l *Listener) Register() {
	l.bot.Handle(tele.OnChannelPost, l.handleChannelPost)
	for _, ch := range l.channels.All() {
		logrus.Infof("[LISTENER] Watching channel '%s' (channel ID: %d, chat ID: %d)", ch.Name, ch.ChannelID, ch.ChatID)
	}
}

func (l *Listener) handleChannelPost(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Chat == nil {
		return nil
	}

	channel, ok := l.channels.ByChannelID(msg.Chat.ID)
	if !ok {
		logrus.Debugf("[LISTENER] Ignoring post from unmonitored chat %d", msg.Chat.ID)
		return nil
	}
	// Defense against posts delivered on an unexpected source: the sender
	// chat, when present, must be the configured channel itself.
	if msg.SenderChat != nil && msg.SenderChat.ID != channel.ChannelID {
		logrus.Debugf("[LISTENER] Skipping message %d: sender chat %d does not match channel %d",
			msg.ID, msg.SenderChat.ID, channel.ChannelID)
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"channel":    channel.Name,
		"message_id": msg.ID,
		"album_id":   msg.AlbumID,
	}).Info("[LISTENER] New channel post")

	l.enqueue(msg, channel)
	return nil
}

// enqueue hands the message to the worker pool in arrival order. The photo
// download happens inside the job, after the event already holds its queue
// slot: sibling parts of one album share a shard, so a slow download for an
// earlier part can never let a later part overtake it on the way to the
// aggregator.
func (l *Listener) enqueue(msg *tele.Message, channel config.Channel) {
	event := buildEvent(msg, channel)
	photo := msg.Photo

	groupKey := event.GroupID
	if groupKey == "" {
		groupKey = strconv.Itoa(event.MessageID)
	}
	l.pool.Dispatch(postworker.Job{
		ChannelID: channel.ChannelID,
		GroupKey:  groupKey,
		Handler: func(ctx context.Context) error {
			if event.Media == domainPost.MediaPhoto {
				path, err := l.media.DownloadPhoto(photo)
				if err != nil {
					logrus.WithError(err).Errorf("[LISTENER] Failed to download photo of message %d", event.MessageID)
				} else {
					event.PhotoPath = path
				}
			}
			l.aggregator.Ingest(event)
			return nil
		},
	})
}

// buildEvent normalizes a platform message into a raw pipeline event.
func buildEvent(msg *tele.Message, channel config.Channel) domainPost.RawEvent {
	return domainPost.RawEvent{
		ChannelID: channel.ChannelID,
		MessageID: msg.ID,
		GroupID:   msg.AlbumID,
		Text:      messageText(msg),
		Media:     mediaKind(msg),
	}
}

func messageText(msg *tele.Message) string {
	if msg.Text != "" {
		return strings.TrimSpace(msg.Text)
	}
	return strings.TrimSpace(msg.Caption)
}

func mediaKind(msg *tele.Message) domainPost.MediaKind {
	switch {
	case msg.Photo != nil:
		return domainPost.MediaPhoto
	case msg.Video != nil || msg.VideoNote != nil:
		return domainPost.MediaVideo
	case msg.Audio != nil || msg.Voice != nil:
		return domainPost.MediaAudio
	case msg.Document != nil:
		return domainPost.MediaDocument
	}
	return domainPost.MediaNone
}
