// Package tgutil holds small Telegram-shaped helpers: t.me deep links and
// temp-file management for downloaded media.
package tgutil

import (
	"fmt"
	"strconv"
	"strings"
)

// MessageURL builds a private t.me deep link to a message in a channel or
// supergroup chat. Channel chat ids carry a -100 prefix on the wire that the
// link format drops. Returns "" when there is nothing to link to.
func MessageURL(chatID int64, messageID int) string {
	if chatID == 0 || messageID <= 0 {
		return ""
	}
	s := strconv.FormatInt(chatID, 10)
	if strings.HasPrefix(s, "-100") {
		s = s[4:]
	} else {
		s = strings.TrimPrefix(s, "-")
	}
	return fmt.Sprintf("https://t.me/c/%s/%d", s, messageID)
}
