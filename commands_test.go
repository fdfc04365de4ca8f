package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"larkbot/internal/larktest"
)

func setupCLI(t *testing.T) *larktest.Server {
	t.Helper()
	srv := larktest.NewServer()
	t.Cleanup(srv.Close)

	t.Setenv("LARKBOT_APP_ID", "cli_cmdtest")
	t.Setenv("LARKBOT_APP_SECRET", "cmdtest_secret")
	t.Setenv("LARKBOT_BASE_URL", srv.URL)
	t.Setenv("LARKBOT_LOG_LEVEL", "error")
	t.Setenv("LARKBOT_TIMEOUT", "")
	t.Setenv("LARKBOT_DEFAULT_CHAT_ID", "")
	t.Setenv("LARKBOT_DEFAULT_OPEN_ID", "")
	return srv
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, _, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "larkbot version")
}

func TestMissingCredentials(t *testing.T) {
	setupCLI(t)
	t.Setenv("LARKBOT_APP_SECRET", "")

	_, _, err := run(t, "", "chats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app secret")
}

func TestFlagsOverrideEnv(t *testing.T) {
	srv := setupCLI(t)
	t.Setenv("LARKBOT_APP_SECRET", "")

	_, _, err := run(t, "", "--app-secret", "from_flag", "send", "text", "hi", "--to-chat", "oc_1")
	require.NoError(t, err)
	assert.Len(t, srv.Messages(), 1)
}

func TestUserCmd(t *testing.T) {
	srv := setupCLI(t)
	srv.AddUser(larktest.User{OpenID: "ou_1", Email: "a@b.c"})

	out, _, err := run(t, "", "user", "--email", "a@b.c", "--mobile", "100")
	require.NoError(t, err)

	var users []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &users))
	require.Len(t, users, 2)
	assert.Equal(t, "ou_1", users[0]["user_id"])
	assert.Equal(t, "", users[1]["user_id"])

	_, _, err = run(t, "", "user")
	assert.Error(t, err)
}

func TestChatsCmd(t *testing.T) {
	srv := setupCLI(t)
	srv.AddChat(larktest.Chat{ChatID: "oc_1", Name: "ops"})
	srv.AddChat(larktest.Chat{ChatID: "oc_2", Name: "dev"})

	out, _, err := run(t, "", "chats")
	require.NoError(t, err)
	var groups []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &groups))
	assert.Len(t, groups, 2)

	out, _, err = run(t, "", "chats", "--name", "dev")
	require.NoError(t, err)
	assert.JSONEq(t, `["oc_2"]`, out)

	out, _, err = run(t, "", "chats", "--name", "nobody")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func TestMembersCmd(t *testing.T) {
	srv := setupCLI(t)
	srv.AddChat(larktest.Chat{ChatID: "oc_1"}, larktest.Member{OpenID: "ou_1", Name: "Ann"})

	out, _, err := run(t, "", "members", "oc_1", "--name", "Ann")
	require.NoError(t, err)
	assert.JSONEq(t, `["ou_1"]`, out)

	_, _, err = run(t, "", "members")
	assert.Error(t, err)
}

func TestSendReceiverResolution(t *testing.T) {
	srv := setupCLI(t)

	_, _, err := run(t, "", "send", "text", "hi")
	assert.Error(t, err)

	_, _, err = run(t, "", "send", "text", "hi", "--to-user", "ou_1", "--to-chat", "oc_1")
	assert.Error(t, err)
	assert.Empty(t, srv.Messages())

	t.Setenv("LARKBOT_DEFAULT_OPEN_ID", "ou_default")
	out, _, err := run(t, "", "send", "text", "hi")
	require.NoError(t, err)
	assert.Contains(t, out, `"message_id": "om_1"`)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "open_id", msgs[0].ReceiveIDType)
	assert.Equal(t, "ou_default", msgs[0].ReceiveID)
}

func TestSendPostCmd(t *testing.T) {
	srv := setupCLI(t)

	_, _, err := run(t, "", "send", "post", "--to-chat", "oc_1",
		"--title", "Release",
		"--line", "**v1.2** is out",
		"--line", `see [notes](https://x.y) <at user_id="all"></at>`,
	)
	require.NoError(t, err)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "post", msgs[0].MsgType)
	assert.JSONEq(t, `{"zh_cn":{"title":"Release","content":[
		[{"tag":"text","text":"v1.2","style":["bold"],"unescape":false},{"tag":"text","text":" is out","style":[],"unescape":false}],
		[{"tag":"text","text":"see ","style":[],"unescape":false},{"tag":"a","text":"notes","href":"https://x.y","style":[]},{"tag":"text","text":" ","style":[],"unescape":false},{"tag":"at","user_id":"all","style":[]}]
	]}}`, msgs[0].Content)
}

func TestSendInteractiveFromStdin(t *testing.T) {
	srv := setupCLI(t)

	_, _, err := run(t, `{"elements":[]}`, "send", "interactive", "-", "--to-chat", "oc_1")
	require.NoError(t, err)
	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.JSONEq(t, `{"elements":[]}`, msgs[0].Content)

	_, _, err = run(t, "", "send", "interactive", "not json", "--to-chat", "oc_1")
	assert.Error(t, err)
}

func TestSendFailureSurfacesCode(t *testing.T) {
	srv := setupCLI(t)
	srv.Fail(larktest.RouteMessages, 230002, "bot not in chat")

	_, _, err := run(t, "", "send", "share-chat", "oc_2", "--to-chat", "oc_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code=230002")
}

func TestUploadDownloadCmds(t *testing.T) {
	setupCLI(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(src, []byte("%PDF"), 0644))

	out, _, err := run(t, "", "upload", "file", src, "--type", "pdf")
	require.NoError(t, err)
	var up map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &up))
	require.NotEmpty(t, up["file_key"])

	dst := filepath.Join(dir, "copy.pdf")
	_, _, err = run(t, "", "download", "file", up["file_key"], dst)
	require.NoError(t, err)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))

	img := filepath.Join(dir, "a.png")
	require.NoError(t, os.WriteFile(img, []byte("png"), 0644))
	out, _, err = run(t, "", "upload", "image", img)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &up))
	require.NotEmpty(t, up["image_key"])

	_, _, err = run(t, "", "download", "image", up["image_key"], filepath.Join(dir, "b.png"))
	require.NoError(t, err)
}

func TestConfigFile(t *testing.T) {
	srv := setupCLI(t)
	t.Setenv("LARKBOT_APP_ID", "")
	path := filepath.Join(t.TempDir(), "larkbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app_id: cli_yaml\ndefault_chat_id: oc_yaml\n"), 0644))

	_, _, err := run(t, "", "-c", path, "send", "system", "维护通知")
	require.NoError(t, err)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "chat_id", msgs[0].ReceiveIDType)
	assert.Equal(t, "oc_yaml", msgs[0].ReceiveID)
	assert.Equal(t, "system", msgs[0].MsgType)
}
