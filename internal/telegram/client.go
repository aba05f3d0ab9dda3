package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

var (
	// ErrAPI wraps every failed Bot API call
	ErrAPI = errors.New("telegram api error")
	// ErrNoPhoto means sendPhoto succeeded but returned no photo sizes
	ErrNoPhoto = errors.New("telegram returned no photo sizes")
)

// SecretHeader carries the webhook secret token on every update
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

type Config struct {
	Token   string
	APIURL  string
	Timeout time.Duration
}

func DefaultConfig(token string) Config {
	return Config{
		Token:   token,
		APIURL:  "https://api.telegram.org",
		Timeout: 30 * time.Second,
	}
}

// Client calls the Bot API through go-telegram/bot. Updates arrive through
// the webhook, so the library's polling loop is never started.
type Client struct {
	api *tgbot.Bot
}

func NewClient(config Config) (*Client, error) {
	opts := []tgbot.Option{
		tgbot.WithSkipGetMe(),
		tgbot.WithHTTPClient(config.Timeout, &http.Client{Timeout: config.Timeout}),
	}
	if config.APIURL != "" {
		opts = append(opts, tgbot.WithServerURL(strings.TrimRight(config.APIURL, "/")))
	}

	api, err := tgbot.New(config.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram client: %w", err)
	}
	return &Client{api: api}, nil
}

func replyParameters(replyTo int64) *models.ReplyParameters {
	if replyTo == 0 {
		return nil
	}
	return &models.ReplyParameters{MessageID: int(replyTo)}
}

// SendMessage sends text, as a reply when replyTo is not zero
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, replyTo int64) error {
	_, err := c.api.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:          chatID,
		Text:            text,
		ReplyParameters: replyParameters(replyTo),
	})
	if err != nil {
		return fmt.Errorf("%w: sendMessage: %w", ErrAPI, err)
	}
	return nil
}

// SendPhoto sends a photo and returns the file_unique_id Telegram assigned to its
// largest size. Replies to that photo carry the same id.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, photo InputPhoto, replyTo int64) (string, error) {
	var file models.InputFile
	if photo.URL != "" {
		file = &models.InputFileString{Data: photo.URL}
	} else {
		filename := photo.Filename
		if filename == "" {
			filename = "photo.jpg"
		}
		file = &models.InputFileUpload{Filename: filename, Data: bytes.NewReader(photo.Data)}
	}

	msg, err := c.api.SendPhoto(ctx, &tgbot.SendPhotoParams{
		ChatID:          chatID,
		Photo:           file,
		ReplyParameters: replyParameters(replyTo),
	})
	if err != nil {
		return "", fmt.Errorf("%w: sendPhoto: %w", ErrAPI, err)
	}
	if msg == nil || len(msg.Photo) == 0 {
		return "", ErrNoPhoto
	}
	return msg.Photo[len(msg.Photo)-1].FileUniqueID, nil
}

// SetWebhook points Telegram at url. A non-empty secret is echoed back in
// SecretHeader on every update.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	_, err := c.api.SetWebhook(ctx, &tgbot.SetWebhookParams{
		URL:            url,
		SecretToken:    secret,
		AllowedUpdates: []string{"message"},
	})
	if err != nil {
		return fmt.Errorf("%w: setWebhook: %w", ErrAPI, err)
	}
	return nil
}
