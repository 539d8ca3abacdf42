package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// zerologAdapter routes the Telegram client's own messages into zerolog.
type zerologAdapter struct{}

var _ tgbotapi.BotLogger = zerologAdapter{}

func (zerologAdapter) Println(v ...interface{}) {
	log.Debug().Str("component", "telegram").Msg(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

func (zerologAdapter) Printf(format string, v ...interface{}) {
	log.Debug().Str("component", "telegram").Msg(strings.TrimSuffix(fmt.Sprintf(format, v...), "\n"))
}

// UseZerolog makes the Telegram client log through zerolog.
func UseZerolog() error {
	return tgbotapi.SetLogger(zerologAdapter{})
}
