package telegram

import (
	"context"
	"strings"
	"sync"

	apperrors "listentg/internal/errors"
	"listentg/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/sirupsen/logrus"
)

// botAPI is the subset of *tgbotapi.BotAPI the client uses
type botAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) (tgbotapi.UpdatesChannel, error)
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client receives messages from Telegram and forwards them on request
type Client struct {
	bot         botAPI
	pollTimeout int
	logger      *logrus.Logger

	mu       sync.Mutex
	stopped  bool
	stopPoll sync.Once
}

// NewClient authorizes the bot token and returns a client ready to subscribe
func NewClient(cfg models.TelegramConfig, logger *logrus.Logger) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeClientUnavailable, "telegram authorization failed")
	}
	bot.Debug = cfg.Debug

	logger.WithField("bot", bot.Self.UserName).Info("Authorized on Telegram")
	return newClient(bot, cfg.PollTimeoutSec, logger), nil
}

func newClient(bot botAPI, pollTimeout int, logger *logrus.Logger) *Client {
	return &Client{
		bot:         bot,
		pollTimeout: pollTimeout,
		logger:      logger,
	}
}

// Subscribe long-polls for updates and hands every message and channel post
// to handler, one at a time, until ctx is done.
func (c *Client) Subscribe(ctx context.Context, handler func(ctx context.Context, event *models.EventView)) error {
	if c.isStopped() {
		return apperrors.NewClientUnavailableError("client stopped")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = c.pollTimeout

	updates, err := c.bot.GetUpdatesChan(u)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeClientUnavailable, "failed to start receiving updates")
	}
	defer c.stopPolling()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return apperrors.NewClientUnavailableError("update channel closed")
			}
			msg := update.Message
			if msg == nil {
				msg = update.ChannelPost
			}
			if msg == nil {
				continue
			}
			handler(ctx, ToEventView(msg))
		}
	}
}

// Forward re-posts the referenced message into destination
func (c *Client) Forward(ctx context.Context, destination int64, ref models.MessageRef) error {
	if c.isStopped() {
		return apperrors.NewClientUnavailableError("client stopped")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := c.bot.Send(tgbotapi.NewForward(destination, ref.ChatID, int(ref.MessageID)))
	if err == nil {
		return nil
	}
	if isForwardRestricted(err) {
		return apperrors.NewForwardRestrictedError(ref.ChatID, ref.MessageID, err)
	}
	if isUnauthorized(err) {
		return apperrors.Wrap(err, apperrors.ErrCodeClientUnavailable, "bot token rejected")
	}
	return err
}

// Stop ends polling. Later Subscribe and Forward calls fail with a
// client unavailable error.
func (c *Client) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	c.stopPolling()
}

// stopPolling ends the update loop. The bot library panics if asked twice.
func (c *Client) stopPolling() {
	c.stopPoll.Do(c.bot.StopReceivingUpdates)
}

func (c *Client) isStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

func isForwardRestricted(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "can't be forwarded") ||
		strings.Contains(msg, "chat_forwards_restricted") ||
		strings.Contains(msg, "has protected content")
}

func isUnauthorized(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unauthorized")
}
