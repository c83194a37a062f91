package telegram

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/agromov/postwatch/pkg/tgutil"
	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v3"
)

// MediaStore downloads post photos into the temp dir and prepares them for
// the comment generator.
type MediaStore struct {
	bot     *tele.Bot
	tempDir string
	maxDim  int
}

func NewMediaStore(bot *tele.Bot, tempDir string, maxDim int) *MediaStore {
	return &MediaStore{bot: bot, tempDir: tempDir, maxDim: maxDim}
}

// DownloadPhoto fetches the photo of a channel post to a local temp file.
func (m *MediaStore) DownloadPhoto(photo *tele.Photo) (string, error) {
	if photo == nil {
		return "", fmt.Errorf("message has no photo")
	}

	path := tgutil.TempFilePath(m.tempDir, ".jpg")
	if err := m.bot.Download(&photo.File, path); err != nil {
		return "", fmt.Errorf("failed to download photo: %w", err)
	}

	if info, err := os.Stat(path); err == nil {
		logrus.Debugf("[MEDIA] Downloaded photo %s (%s)", path, humanize.Bytes(uint64(info.Size())))
	}
	return path, nil
}

// EncodeDataURL loads a downloaded photo, bounds its dimensions and returns
// it as a base64 JPEG data URL.
func (m *MediaStore) EncodeDataURL(path string) (string, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open photo %s: %w", path, err)
	}

	if m.maxDim > 0 {
		bounds := img.Bounds()
		if bounds.Dx() > m.maxDim || bounds.Dy() > m.maxDim {
			img = imaging.Fit(img, m.maxDim, m.maxDim, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("failed to encode photo %s: %w", path, err)
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
