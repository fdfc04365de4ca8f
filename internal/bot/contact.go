package bot

import (
	"context"
	"fmt"

	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkcontact "github.com/larksuite/oapi-sdk-go/v3/service/contact/v3"
)

// User is a directory entry resolved from an email or mobile number.
// UserID is empty when nothing matched.
type User struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email,omitempty"`
	Mobile    string `json:"mobile,omitempty"`
	Resigned  bool   `json:"resigned"`
	Activated bool   `json:"activated"`
	Frozen    bool   `json:"frozen"`
}

// GetUserInfo resolves emails and mobiles to open IDs. Resigned users are
// included.
func (b *Bot) GetUserInfo(ctx context.Context, emails, mobiles []string) ([]User, error) {
	const op = "get user info"
	req := larkcontact.NewBatchGetIdUserReqBuilder().
		UserIdType("open_id").
		Body(larkcontact.NewBatchGetIdUserReqBodyBuilder().
			Emails(emails).
			Mobiles(mobiles).
			IncludeResigned(true).
			Build()).
		Build()

	resp, err := b.client.Contact.User.BatchGetId(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !resp.Success() {
		return nil, b.fail(op, resp.Code, resp.Msg, resp.RequestId())
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNoData)
	}

	users := make([]User, 0, len(resp.Data.UserList))
	for _, u := range resp.Data.UserList {
		if u == nil {
			continue
		}
		user := User{
			UserID: larkcore.StringValue(u.UserId),
			Email:  larkcore.StringValue(u.Email),
			Mobile: larkcore.StringValue(u.Mobile),
		}
		if u.Status != nil {
			user.Resigned = larkcore.BoolValue(u.Status.IsResigned)
			user.Activated = larkcore.BoolValue(u.Status.IsActivated)
			user.Frozen = larkcore.BoolValue(u.Status.IsFrozen)
		}
		users = append(users, user)
	}
	return users, nil
}
