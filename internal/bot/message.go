package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"

	"larkbot/internal/content"
)

// ReceiveIDType says how a Receiver's ID is interpreted.
type ReceiveIDType string

const (
	ReceiveOpenID ReceiveIDType = "open_id"
	ReceiveChatID ReceiveIDType = "chat_id"
)

// MsgType is the message kind sent as msg_type.
type MsgType string

const (
	MsgText        MsgType = "text"
	MsgImage       MsgType = "image"
	MsgInteractive MsgType = "interactive"
	MsgShareChat   MsgType = "share_chat"
	MsgShareUser   MsgType = "share_user"
	MsgAudio       MsgType = "audio"
	MsgMedia       MsgType = "media"
	MsgFile        MsgType = "file"
	MsgPost        MsgType = "post"
	MsgSystem      MsgType = "system"
)

// Receiver addresses a message to a user or a chat.
type Receiver struct {
	IDType ReceiveIDType
	ID     string
}

// ToUser addresses a user by open ID.
func ToUser(openID string) Receiver {
	return Receiver{IDType: ReceiveOpenID, ID: openID}
}

func ToChat(chatID string) Receiver {
	return Receiver{IDType: ReceiveChatID, ID: chatID}
}

// SentMessage describes a message accepted by the platform. Raw is the
// untouched response body.
type SentMessage struct {
	MessageID  string          `json:"message_id"`
	ChatID     string          `json:"chat_id"`
	MsgType    string          `json:"msg_type"`
	CreateTime string          `json:"create_time"`
	Raw        json.RawMessage `json:"-"`
}

// encodeContent returns body as the JSON string the message API expects.
// Strings and raw JSON are passed through unchanged.
func encodeContent(body any) (string, error) {
	switch v := body.(type) {
	case string:
		return v, nil
	case json.RawMessage:
		return string(v), nil
	case []byte:
		return string(v), nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SendMessage sends one message. Each call carries a fresh UUID so the
// platform deduplicates accidental resends of the same request.
func (b *Bot) SendMessage(ctx context.Context, to Receiver, msgType MsgType, body any) (*SentMessage, error) {
	op := fmt.Sprintf("send %s message", msgType)
	encoded, err := encodeContent(body)
	if err != nil {
		return nil, fmt.Errorf("%s: encode content: %w", op, err)
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(string(to.IDType)).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(to.ID).
			MsgType(string(msgType)).
			Content(encoded).
			Uuid(b.newUUID()).
			Build()).
		Build()

	resp, err := b.client.Im.Message.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !resp.Success() {
		return nil, b.fail(op, resp.Code, resp.Msg, resp.RequestId())
	}

	sent := &SentMessage{}
	if resp.ApiResp != nil {
		sent.Raw = json.RawMessage(resp.RawBody)
	}
	if resp.Data != nil {
		sent.MessageID = larkcore.StringValue(resp.Data.MessageId)
		sent.ChatID = larkcore.StringValue(resp.Data.ChatId)
		sent.MsgType = larkcore.StringValue(resp.Data.MsgType)
		sent.CreateTime = larkcore.StringValue(resp.Data.CreateTime)
	}
	b.logger.Debug("message sent", "msg_type", msgType, "receive_id_type", to.IDType, "message_id", sent.MessageID)
	return sent, nil
}

func (b *Bot) SendText(ctx context.Context, to Receiver, text string) (*SentMessage, error) {
	return b.SendMessage(ctx, to, MsgText, map[string]string{"text": text})
}

func (b *Bot) SendImage(ctx context.Context, to Receiver, imageKey string) (*SentMessage, error) {
	return b.SendMessage(ctx, to, MsgImage, map[string]string{"image_key": imageKey})
}

// SendInteractive sends a message card.
func (b *Bot) SendInteractive(ctx context.Context, to Receiver, card map[string]any) (*SentMessage, error) {
	return b.SendMessage(ctx, to, MsgInteractive, card)
}

// SendSharedChat shares the card of another chat.
func (b *Bot) SendSharedChat(ctx context.Context, to Receiver, sharedChatID string) (*SentMessage, error) {
	return b.SendMessage(ctx, to, MsgShareChat, map[string]string{"chat_id": sharedChatID})
}

// SendSharedUser shares a user's business card.
func (b *Bot) SendSharedUser(ctx context.Context, to Receiver, sharedUserID string) (*SentMessage, error) {
	return b.SendMessage(ctx, to, MsgShareUser, map[string]string{"user_id": sharedUserID})
}

func (b *Bot) SendAudio(ctx context.Context, to Receiver, fileKey string) (*SentMessage, error) {
	return b.SendMessage(ctx, to, MsgAudio, map[string]string{"file_key": fileKey})
}

func (b *Bot) SendMedia(ctx context.Context, to Receiver, fileKey string) (*SentMessage, error) {
	return b.SendMessage(ctx, to, MsgMedia, map[string]string{"file_key": fileKey})
}

func (b *Bot) SendFile(ctx context.Context, to Receiver, fileKey string) (*SentMessage, error) {
	return b.SendMessage(ctx, to, MsgFile, map[string]string{"file_key": fileKey})
}

// SendPost sends a rich-text post. post is a *content.Post or any value
// that already encodes to the post document, such as a map or raw JSON.
func (b *Bot) SendPost(ctx context.Context, to Receiver, post any) (*SentMessage, error) {
	switch p := post.(type) {
	case nil:
		return nil, errors.New("send post message: nil post")
	case *content.Post:
		if p == nil {
			return nil, errors.New("send post message: nil post")
		}
		return b.SendMessage(ctx, to, MsgPost, p.Serialize())
	}
	return b.SendMessage(ctx, to, MsgPost, post)
}

// SystemMessage builds the divider-style system message body.
func SystemMessage(text string) map[string]any {
	return map[string]any{
		"type": "divider",
		"params": map[string]any{
			"divider_text": map[string]any{
				"text":      text,
				"i18n_text": map[string]string{"zh_CN": text},
			},
		},
		"options": map[string]any{"need_rollup": true},
	}
}

// SendSystem sends a divider system message. The platform only accepts
// these in single chats, so callers normally address a user.
func (b *Bot) SendSystem(ctx context.Context, to Receiver, text string) (*SentMessage, error) {
	return b.SendMessage(ctx, to, MsgSystem, SystemMessage(text))
}
