package post

import "strings"

// MediaKind classifies the single attachment carried by a raw channel event.
type MediaKind int

const (
	MediaNone MediaKind = iota
	MediaPhoto
	MediaVideo
	MediaAudio
	MediaDocument
)

// RawEvent is one platform message as delivered by the source listener.
// Multi-part posts (albums) arrive as several raw events sharing a GroupID.
type RawEvent struct {
	ChannelID int64
	MessageID int
	GroupID   string
	Text      string
	Media     MediaKind
	// PhotoPath is the local path of the already-downloaded photo, empty
	// when Media is not a photo or the download failed.
	PhotoPath string
}

// Usable reports whether the event contributes anything to a logical post.
// Events whose only payload is a video, audio or document attachment carry
// nothing we can comment on and are filtered out.
func (e RawEvent) Usable() bool {
	if strings.TrimSpace(e.Text) != "" {
		return true
	}
	switch e.Media {
	case MediaVideo, MediaAudio, MediaDocument:
		return false
	}
	return true
}

// LogicalPost is one published item after grouping and filtering.
type LogicalPost struct {
	ChannelID int64
	// MessageID is the representative message of the post: the first event
	// that contributed a photo, or the first surviving event otherwise.
	MessageID  int
	Text       string
	PhotoPaths []string
}

// Merge assembles a logical post from the ordered events of one group.
// Returns false when nothing usable survives the content filter.
func Merge(events []RawEvent) (LogicalPost, bool) {
	var (
		texts     []string
		photos    []string
		channelID int64
		firstID   int
		photoID   int
	)

	for _, e := range events {
		if !e.Usable() {
			continue
		}
		if firstID == 0 {
			firstID = e.MessageID
			channelID = e.ChannelID
		}
		if t := strings.TrimSpace(e.Text); t != "" {
			texts = append(texts, t)
		}
		if e.Media == MediaPhoto && e.PhotoPath != "" {
			photos = append(photos, e.PhotoPath)
			if photoID == 0 {
				photoID = e.MessageID
			}
		}
	}

	if len(texts) == 0 && len(photos) == 0 {
		return LogicalPost{}, false
	}

	repID := photoID
	if repID == 0 {
		repID = firstID
	}

	return LogicalPost{
		ChannelID:  channelID,
		MessageID:  repID,
		Text:       strings.Join(texts, " "),
		PhotoPaths: photos,
	}, true
}
