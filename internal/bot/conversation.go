// Package bot implements the labeling conversation.
//
// Labeling is a two-turn protocol. /getface hands out an unnamed face and
// records the transport's unique id for the delivered photo on it: the face
// is then AwaitingName, keyed by that id. A later reply to the photo resolves
// the id back to the face and writes the name. Nothing is held in memory
// between turns; the face metadata is the only state.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"github.com/saturnino-fabrica-de-software/facelabel/internal/audit"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/domain"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/telegram"
)

// Transport is the outbound side of the bot API
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string, replyTo int64) error
	SendPhoto(ctx context.Context, chatID int64, photo telegram.InputPhoto, replyTo int64) (string, error)
}

// FaceIndex is the metadata index the conversation reads and writes
type FaceIndex interface {
	FindUnnamedFace(ctx context.Context) (*domain.FaceObject, error)
	FindFaceByUniqueID(ctx context.Context, uniqueID string) (*domain.FaceObject, error)
	CollectOriginalsByName(ctx context.Context, name string) ([]string, error)
	MergeMetadata(ctx context.Context, key string, updates map[string]string) error
}

// AwaitingName is a face that was delivered and waits for a reply naming it
type AwaitingName struct {
	FaceKey  string
	UniqueID string
}

// Conversation handles one inbound message at a time. It is safe for
// concurrent use; concurrent writes to the same face race and the last wins.
type Conversation struct {
	index       FaceIndex
	transport   Transport
	photos      PhotoSource
	botUsername string
	audit       audit.Logger
	logger      *slog.Logger
}

func NewConversation(index FaceIndex, transport Transport, photos PhotoSource, logger *slog.Logger) *Conversation {
	return &Conversation{
		index:     index,
		transport: transport,
		photos:    photos,
		audit:     &audit.NoOpLogger{},
		logger:    logger.With("component", "bot"),
	}
}

// WithBotUsername makes /cmd@username addressed commands recognisable
func (c *Conversation) WithBotUsername(username string) *Conversation {
	c.botUsername = strings.TrimPrefix(username, "@")
	return c
}

func (c *Conversation) WithAudit(logger audit.Logger) *Conversation {
	c.audit = logger
	return c
}

// HandleMessage routes one inbound message. Replies to the user are best
// effort; the returned error is an index or storage failure.
func (c *Conversation) HandleMessage(ctx context.Context, msg *telegram.Message) error {
	if msg == nil {
		return nil
	}
	chatID, replyTo := msg.Chat.ID, msg.MessageID
	text := strings.TrimSpace(msg.Text)

	if cmd, args, ok := parseCommand(text); ok {
		target, mine := c.addressedToMe(cmd)
		if !mine {
			c.logger.Debug("ignoring command for another bot", "chat_id", chatID, "command", cmd)
			return nil
		}
		return c.handleCommand(ctx, chatID, replyTo, target, args)
	}

	if text != "" {
		if photo := msg.ReplyToMessage.LargestPhoto(); photo != nil {
			return c.handleNaming(ctx, chatID, replyTo, photo.FileUniqueID, text)
		}
	}

	c.reply(ctx, chatID, replyTo, msgUnknown)
	return nil
}

func (c *Conversation) handleCommand(ctx context.Context, chatID, replyTo int64, cmd, args string) error {
	switch cmd {
	case "start":
		c.reply(ctx, chatID, replyTo, msgStart)
		return nil
	case "getface":
		_, err := c.HandOutFace(ctx, chatID, replyTo)
		return err
	case "find":
		return c.find(ctx, chatID, replyTo, args)
	default:
		c.reply(ctx, chatID, replyTo, msgUnknown)
		return nil
	}
}

// HandOutFace is the first turn: it sends an unnamed face and tags it with the
// delivery's unique id. It returns nil when no face was handed out.
//
// Faces never sent go first. When only faces awaiting a name are left, one is
// sent again but keeps the unique id of its first delivery, so a reply to the
// first photo still resolves to it.
func (c *Conversation) HandOutFace(ctx context.Context, chatID, replyTo int64) (*AwaitingName, error) {
	face, err := c.index.FindUnnamedFace(ctx)
	if err != nil {
		return nil, fmt.Errorf("find unnamed face: %w", err)
	}
	if face == nil {
		c.reply(ctx, chatID, replyTo, msgAllNamed)
		return nil, nil
	}
	log := c.logger.With("chat_id", chatID, "face_key", face.Key)

	photo, err := c.photos.Face(ctx, face.Key)
	if err != nil {
		return nil, fmt.Errorf("load face %s: %w", face.Key, err)
	}

	uniqueID, err := c.transport.SendPhoto(ctx, chatID, photo, replyTo)
	if err != nil {
		log.Error("failed to send face photo", "error", err)
		return nil, nil
	}

	if face.State() == domain.StateAwaitingName {
		log.Info("face sent again, still awaiting name", "unique_id", face.UniqueID(), "resent_unique_id", uniqueID)
		return &AwaitingName{FaceKey: face.Key, UniqueID: face.UniqueID()}, nil
	}

	if err := c.index.MergeMetadata(ctx, face.Key, map[string]string{domain.MetaTgFileUniqueID: uniqueID}); err != nil {
		return nil, fmt.Errorf("tag face %s: %w", face.Key, err)
	}

	c.logAudit(ctx, audit.EventFaceSent, chatID, face.Key, map[string]string{"unique_id": uniqueID})
	log.Info("face awaiting name", "unique_id", uniqueID)
	return &AwaitingName{FaceKey: face.Key, UniqueID: uniqueID}, nil
}

// ResolveName is the second turn: it names the face delivered as uniqueID.
// It returns nil when the id matches no face.
func (c *Conversation) ResolveName(ctx context.Context, uniqueID, name string) (*domain.FaceObject, error) {
	face, err := c.index.FindFaceByUniqueID(ctx, uniqueID)
	if err != nil {
		return nil, fmt.Errorf("find face by unique id: %w", err)
	}
	if face == nil {
		return nil, nil
	}

	if err := c.index.MergeMetadata(ctx, face.Key, map[string]string{domain.MetaName: name}); err != nil {
		return nil, fmt.Errorf("name face %s: %w", face.Key, err)
	}
	if face.Metadata == nil {
		face.Metadata = make(map[string]string, 1)
	}
	face.Metadata[domain.MetaName] = name
	return face, nil
}

func (c *Conversation) handleNaming(ctx context.Context, chatID, replyTo int64, uniqueID, name string) error {
	face, err := c.ResolveName(ctx, uniqueID, name)
	if err != nil {
		return err
	}
	if face == nil {
		c.logger.Info("reply does not match a sent face", "chat_id", chatID, "unique_id", uniqueID)
		c.reply(ctx, chatID, replyTo, msgFaceNotFound)
		return nil
	}

	c.logAudit(ctx, audit.EventFaceNamed, chatID, face.Key, map[string]string{"name": name})
	c.logger.Info("face named", "chat_id", chatID, "face_key", face.Key)
	c.reply(ctx, chatID, replyTo, fmt.Sprintf(msgNamed, name))
	return nil
}

func (c *Conversation) find(ctx context.Context, chatID, replyTo int64, name string) error {
	if name == "" {
		c.reply(ctx, chatID, replyTo, msgFindUsage)
		return nil
	}

	originals, err := c.index.CollectOriginalsByName(ctx, name)
	if err != nil {
		return fmt.Errorf("collect originals: %w", err)
	}
	c.logAudit(ctx, audit.EventFaceSearched, chatID, "", map[string]string{
		"name":    name,
		"matches": strconv.Itoa(len(originals)),
	})

	if len(originals) == 0 {
		c.reply(ctx, chatID, replyTo, fmt.Sprintf(msgNotFound, name))
		return nil
	}

	for _, key := range originals {
		if err := c.sendOriginal(ctx, chatID, replyTo, key); err != nil {
			c.logger.Error("failed to send original", "chat_id", chatID, "key", key, "error", err)
			c.reply(ctx, chatID, replyTo, key)
		}
	}
	return nil
}

func (c *Conversation) sendOriginal(ctx context.Context, chatID, replyTo int64, key string) error {
	photo, err := c.photos.Original(ctx, key)
	if err != nil {
		return err
	}
	_, err = c.transport.SendPhoto(ctx, chatID, photo, replyTo)
	return err
}

func (c *Conversation) reply(ctx context.Context, chatID, replyTo int64, text string) {
	if err := c.transport.SendMessage(ctx, chatID, text, replyTo); err != nil {
		c.logger.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}

// addressedToMe strips a @username suffix and reports whether the command is ours
func (c *Conversation) addressedToMe(cmd string) (string, bool) {
	name, target, found := strings.Cut(cmd, "@")
	if !found {
		return cmd, true
	}
	if c.botUsername == "" || strings.EqualFold(target, c.botUsername) {
		return name, true
	}
	return name, false
}

// parseCommand splits "/cmd@bot args" into "cmd@bot" and "args"
func parseCommand(text string) (string, string, bool) {
	if !strings.HasPrefix(text, "/") || len(text) == 1 {
		return "", "", false
	}
	body := text[1:]
	cmd, args := body, ""
	if i := strings.IndexFunc(body, unicode.IsSpace); i >= 0 {
		cmd, args = body[:i], body[i:]
	}
	if cmd == "" {
		return "", "", false
	}
	return strings.ToLower(cmd), strings.TrimSpace(args), true
}

func (c *Conversation) logAudit(ctx context.Context, eventType audit.EventType, chatID int64, key string, metadata map[string]string) {
	if err := c.audit.Log(ctx, audit.Event{
		EventType: eventType,
		ObjectKey: key,
		ChatID:    chatID,
		Success:   true,
		Metadata:  metadata,
	}); err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Warn("failed to write audit event", "error", err)
	}
}
