package telegram

import (
	"errors"
	"fmt"
	"time"

	"github.com/agromov/postwatch/pkg/ratelimit"
	"github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v3"
)

// NewBot connects to the Bot API. Failing here is fatal for startup; every
// later failure is contained at its unit of work.
func NewBot(token string) (*tele.Bot, error) {
	bot, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			logrus.WithError(err).Error("[TELEGRAM] update handler error")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	return bot, nil
}

// WrapFloodError converts telebot's flood-control error into the sender's
// rate-limit signal so the retry loop honors the mandated wait.
func WrapFloodError(err error) error {
	if err == nil {
		return nil
	}
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return &ratelimit.FloodWaitError{
			RetryAfter: time.Duration(flood.RetryAfter) * time.Second,
			Err:        err,
		}
	}
	return err
}
