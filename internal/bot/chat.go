package bot

import (
	"context"
	"fmt"

	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
)

const pageSize = 100 // max page size of the chat and member list APIs

// Group is a chat the bot belongs to.
type Group struct {
	ChatID      string `json:"chat_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	OwnerID     string `json:"owner_id,omitempty"`
	OwnerIDType string `json:"owner_id_type,omitempty"`
	External    bool   `json:"external"`
	TenantKey   string `json:"tenant_key,omitempty"`
	Status      string `json:"chat_status,omitempty"`
}

type Member struct {
	MemberID     string `json:"member_id"`
	MemberIDType string `json:"member_id_type"`
	Name         string `json:"name"`
	TenantKey    string `json:"tenant_key,omitempty"`
}

// ListGroups returns every chat the bot is a member of, following pagination.
func (b *Bot) ListGroups(ctx context.Context) ([]Group, error) {
	const op = "list groups"
	var groups []Group
	pageToken := ""
	for {
		builder := larkim.NewListChatReqBuilder().PageSize(pageSize)
		if pageToken != "" {
			builder.PageToken(pageToken)
		}

		resp, err := b.client.Im.Chat.List(ctx, builder.Build())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !resp.Success() {
			return nil, b.fail(op, resp.Code, resp.Msg, resp.RequestId())
		}
		if resp.Data == nil {
			return nil, fmt.Errorf("%s: %w", op, ErrNoData)
		}

		for _, c := range resp.Data.Items {
			if c == nil {
				continue
			}
			groups = append(groups, Group{
				ChatID:      larkcore.StringValue(c.ChatId),
				Name:        larkcore.StringValue(c.Name),
				Description: larkcore.StringValue(c.Description),
				Avatar:      larkcore.StringValue(c.Avatar),
				OwnerID:     larkcore.StringValue(c.OwnerId),
				OwnerIDType: larkcore.StringValue(c.OwnerIdType),
				External:    larkcore.BoolValue(c.External),
				TenantKey:   larkcore.StringValue(c.TenantKey),
				Status:      larkcore.StringValue(c.ChatStatus),
			})
		}

		pageToken = larkcore.StringValue(resp.Data.PageToken)
		if !larkcore.BoolValue(resp.Data.HasMore) || pageToken == "" {
			return groups, nil
		}
	}
}

// GroupChatIDsByName returns the chat IDs of every group named exactly name.
func (b *Bot) GroupChatIDsByName(ctx context.Context, name string) ([]string, error) {
	groups, err := b.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, g := range groups {
		if g.Name == name {
			ids = append(ids, g.ChatID)
		}
	}
	return ids, nil
}

// GroupMembers lists the members of a chat, identified by open ID.
func (b *Bot) GroupMembers(ctx context.Context, chatID string) ([]Member, error) {
	const op = "get group members"
	var members []Member
	pageToken := ""
	for {
		builder := larkim.NewGetChatMembersReqBuilder().
			ChatId(chatID).
			MemberIdType("open_id").
			PageSize(pageSize)
		if pageToken != "" {
			builder.PageToken(pageToken)
		}

		resp, err := b.client.Im.ChatMembers.Get(ctx, builder.Build())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !resp.Success() {
			return nil, b.fail(op, resp.Code, resp.Msg, resp.RequestId())
		}
		if resp.Data == nil {
			return nil, fmt.Errorf("%s: %w", op, ErrNoData)
		}

		for _, m := range resp.Data.Items {
			if m == nil {
				continue
			}
			members = append(members, Member{
				MemberID:     larkcore.StringValue(m.MemberId),
				MemberIDType: larkcore.StringValue(m.MemberIdType),
				Name:         larkcore.StringValue(m.Name),
				TenantKey:    larkcore.StringValue(m.TenantKey),
			})
		}

		pageToken = larkcore.StringValue(resp.Data.PageToken)
		if !larkcore.BoolValue(resp.Data.HasMore) || pageToken == "" {
			return members, nil
		}
	}
}

// MemberOpenIDsByName returns the open IDs of chat members named exactly name.
func (b *Bot) MemberOpenIDsByName(ctx context.Context, chatID, name string) ([]string, error) {
	members, err := b.GroupMembers(ctx, chatID)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, m := range members {
		if m.Name == name {
			ids = append(ids, m.MemberID)
		}
	}
	return ids, nil
}
