package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cloud66-oss/ipbot/provider"
	"github.com/getsentry/sentry-go"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

var _ API = (*tgbotapi.BotAPI)(nil)

// Bot receives updates by long polling and answers commands. Each command is
// handled in its own goroutine.
type Bot struct {
	api         API
	resolver    provider.IPProvider
	pollTimeout time.Duration

	stopOnce sync.Once
	handlers sync.WaitGroup
}

func New(api API, resolver provider.IPProvider, pollTimeout time.Duration) *Bot {
	return &Bot{
		api:         api,
		resolver:    resolver,
		pollTimeout: pollTimeout,
	}
}

func (b *Bot) RegisterCommands() error {
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(Commands...)); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	return nil
}

// Run dispatches updates until Stop is called and the update channel drains,
// then waits for in-flight handlers.
func (b *Bot) Run(ctx context.Context) error {
	config := tgbotapi.NewUpdate(0)
	config.Timeout = int(b.pollTimeout / time.Second)

	updates := b.api.GetUpdatesChan(config)
	log.Info().Dur("poll_timeout", b.pollTimeout).Msg("dispatching updates")

	for update := range updates {
		msg := update.Message
		if msg == nil || !msg.IsCommand() {
			continue
		}

		b.handlers.Add(1)
		go func() {
			defer b.handlers.Done()

			if err := b.handle(ctx, msg); err != nil {
				log.Error().Err(err).Int64("chat", msg.Chat.ID).Str("command", msg.Command()).Msg("failed to answer command")
			}
		}()
	}

	b.handlers.Wait()
	log.Info().Msg("dispatch loop stopped")

	return nil
}

// Stop asks the update poller to stop. Safe to call more than once.
func (b *Bot) Stop() {
	b.stopOnce.Do(func() {
		log.Info().Msg("stopping update polling")
		b.api.StopReceivingUpdates()
	})
}

// handle answers /ip with a lookup and every other command, unknown ones
// included, with the help text. Unknown commands are not silently dropped so
// a mistyped command still tells the user what is available.
func (b *Bot) handle(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	log.Debug().Int64("chat", chatID).Str("command", msg.Command()).Msg("command received")

	switch msg.Command() {
	case CommandIP:
		return b.answerIP(ctx, chatID)
	default:
		_, err := b.api.Send(tgbotapi.NewMessage(chatID, HelpText()))
		return err
	}
}

// answerIP always replaces the placeholder, either with the address or with
// the reason the lookup failed.
func (b *Bot) answerIP(ctx context.Context, chatID int64) error {
	placeholder, err := b.api.Send(tgbotapi.NewMessage(chatID, lookupPlaceholder))
	if err != nil {
		return fmt.Errorf("failed to send placeholder: %w", err)
	}

	var text string
	info, err := b.resolver.Lookup(ctx)
	if err != nil {
		log.Error().Err(err).Int64("chat", chatID).Msg("failed to look up public IP address")
		sentry.CaptureException(err)
		text = FormatError(err)
	} else {
		log.Info().Int64("chat", chatID).Str("source", info.Source).Msg("public IP address sent")
		text = FormatIPInfo(info)
	}

	if _, err := b.api.Send(tgbotapi.NewEditMessageText(chatID, placeholder.MessageID, text)); err != nil {
		return fmt.Errorf("failed to edit placeholder: %w", err)
	}

	return nil
}
