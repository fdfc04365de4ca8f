package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"larkbot/internal/bot"
	"larkbot/internal/content"
	"larkbot/internal/version"
)

type cli struct {
	root   *cobra.Command
	out    io.Writer
	errOut io.Writer

	configPath string
	flags      bot.Config

	cfg bot.Config
	bot *bot.Bot
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{out: out, errOut: errOut}
	root := &cobra.Command{
		Use:   "larkbot",
		Short: "Command-line access to the Feishu/Lark Open Platform",
		Long: "Look up users and chats, send messages of every kind and move images and files\n" +
			"through the Feishu/Lark Open Platform.\n\n" +
			"Configuration priority: flags > config file (-c) > environment (LARKBOT_*) > .env",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	c.root = root

	pf := root.PersistentFlags()
	pf.StringVarP(&c.configPath, "config", "c", "", "path to YAML config file")
	pf.StringVar(&c.flags.AppID, "app-id", "", "app ID")
	pf.StringVar(&c.flags.AppSecret, "app-secret", "", "app secret")
	pf.StringVar(&c.flags.BaseURL, "base-url", "", "Open Platform base URL")
	pf.StringVar(&c.flags.LogLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		c.versionCmd(),
		c.userCmd(),
		c.chatsCmd(),
		c.membersCmd(),
		c.sendCmd(),
		c.uploadCmd(),
		c.downloadCmd(),
	)
	return root
}

// setup loads configuration and builds the client. It runs before every
// command that talks to the platform.
func (c *cli) setup(_ *cobra.Command, _ []string) error {
	cfg, err := bot.LoadConfigFrom(c.configPath)
	if err != nil {
		return err
	}
	cfg.Merge(c.flags)
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, _ := bot.ParseLevel(cfg.LogLevel)
	logger := bot.NewLogger(c.errOut, level, cfg.AppSecret)

	c.cfg = cfg
	c.bot = bot.New(cfg, logger)
	return nil
}

func (c *cli) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintln(c.out, version.String())
		},
	}
}

func (c *cli) userCmd() *cobra.Command {
	var emails, mobiles []string
	cmd := &cobra.Command{
		Use:     "user",
		Short:   "Resolve users by email or mobile number",
		PreRunE: c.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(emails) == 0 && len(mobiles) == 0 {
				return errors.New("at least one --email or --mobile is required")
			}
			users, err := c.bot.GetUserInfo(cmd.Context(), emails, mobiles)
			if err != nil {
				return err
			}
			return c.print(users)
		},
	}
	cmd.Flags().StringSliceVar(&emails, "email", nil, "email address (repeatable)")
	cmd.Flags().StringSliceVar(&mobiles, "mobile", nil, "mobile number (repeatable)")
	return cmd
}

func (c *cli) chatsCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:     "chats",
		Short:   "List the chats the bot belongs to",
		PreRunE: c.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if name != "" {
				ids, err := c.bot.GroupChatIDsByName(cmd.Context(), name)
				if err != nil {
					return err
				}
				return c.print(nonNil(ids))
			}
			groups, err := c.bot.ListGroups(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(nonNil(groups))
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "only print chat IDs of groups with this exact name")
	return cmd
}

func (c *cli) membersCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:     "members CHAT_ID",
		Short:   "List the members of a chat",
		Args:    cobra.ExactArgs(1),
		PreRunE: c.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name != "" {
				ids, err := c.bot.MemberOpenIDsByName(cmd.Context(), args[0], name)
				if err != nil {
					return err
				}
				return c.print(nonNil(ids))
			}
			members, err := c.bot.GroupMembers(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.print(nonNil(members))
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "only print open IDs of members with this exact name")
	return cmd
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type sendFunc func(ctx context.Context, to bot.Receiver, args []string) (*bot.SentMessage, error)

func (c *cli) sendCmd() *cobra.Command {
	var toUser, toChat string
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a message to a user (--to-user) or a chat (--to-chat)",
	}
	cmd.PersistentFlags().StringVar(&toUser, "to-user", "", "receiver open ID")
	cmd.PersistentFlags().StringVar(&toChat, "to-chat", "", "receiver chat ID")

	sub := func(use, short string, nargs int, fn sendFunc) *cobra.Command {
		return &cobra.Command{
			Use:     use,
			Short:   short,
			Args:    cobra.ExactArgs(nargs),
			PreRunE: c.setup,
			RunE: func(cmd *cobra.Command, args []string) error {
				to, err := c.receiver(toUser, toChat)
				if err != nil {
					return err
				}
				sent, err := fn(cmd.Context(), to, args)
				if err != nil {
					return err
				}
				return c.print(sent)
			},
		}
	}

	cmd.AddCommand(
		sub("text TEXT", "Send a text message (inline markup allowed)", 1,
			func(ctx context.Context, to bot.Receiver, args []string) (*bot.SentMessage, error) {
				return c.bot.SendText(ctx, to, args[0])
			}),
		sub("image IMAGE_KEY", "Send an uploaded image", 1,
			func(ctx context.Context, to bot.Receiver, args []string) (*bot.SentMessage, error) {
				return c.bot.SendImage(ctx, to, args[0])
			}),
		sub("file FILE_KEY", "Send an uploaded file", 1,
			func(ctx context.Context, to bot.Receiver, args []string) (*bot.SentMessage, error) {
				return c.bot.SendFile(ctx, to, args[0])
			}),
		sub("audio FILE_KEY", "Send an uploaded opus audio file", 1,
			func(ctx context.Context, to bot.Receiver, args []string) (*bot.SentMessage, error) {
				return c.bot.SendAudio(ctx, to, args[0])
			}),
		sub("media FILE_KEY", "Send an uploaded mp4 video", 1,
			func(ctx context.Context, to bot.Receiver, args []string) (*bot.SentMessage, error) {
				return c.bot.SendMedia(ctx, to, args[0])
			}),
		sub("share-chat CHAT_ID", "Share a group card", 1,
			func(ctx context.Context, to bot.Receiver, args []string) (*bot.SentMessage, error) {
				return c.bot.SendSharedChat(ctx, to, args[0])
			}),
		sub("share-user USER_ID", "Share a user card", 1,
			func(ctx context.Context, to bot.Receiver, args []string) (*bot.SentMessage, error) {
				return c.bot.SendSharedUser(ctx, to, args[0])
			}),
		sub("system TEXT", "Send a divider system message", 1,
			func(ctx context.Context, to bot.Receiver, args []string) (*bot.SentMessage, error) {
				return c.bot.SendSystem(ctx, to, args[0])
			}),
		sub("interactive CARD_JSON", "Send a message card; use - to read the card from stdin", 1,
			func(ctx context.Context, to bot.Receiver, args []string) (*bot.SentMessage, error) {
				card, err := c.readCard(args[0])
				if err != nil {
					return nil, err
				}
				return c.bot.SendInteractive(ctx, to, card)
			}),
		c.sendPostCmd(sub),
	)
	return cmd
}

func (c *cli) sendPostCmd(sub func(string, string, int, sendFunc) *cobra.Command) *cobra.Command {
	var title string
	var lines []string
	cmd := sub("post", "Send a rich-text post built from --title and --line", 0,
		func(ctx context.Context, to bot.Receiver, _ []string) (*bot.SentMessage, error) {
			return c.bot.SendPost(ctx, to, buildPost(title, lines))
		})
	cmd.Long = "Each --line becomes one row of the post. Lines understand **bold**, *italic*,\n" +
		"__underline__, ~~strike~~, [text](url) and <at user_id=\"ID\"></at>."
	cmd.Flags().StringVar(&title, "title", "", "post title")
	cmd.Flags().StringArrayVar(&lines, "line", nil, "post line (repeatable)")
	return cmd
}

func buildPost(title string, lines []string) *content.Post {
	post := content.NewPost(title)
	for _, line := range lines {
		post.AppendSpansAsNewLine(content.ParseLine(line))
	}
	return post
}

func (c *cli) readCard(arg string) (map[string]any, error) {
	data := []byte(arg)
	if arg == "-" {
		var err error
		if data, err = io.ReadAll(c.root.InOrStdin()); err != nil {
			return nil, fmt.Errorf("read card: %w", err)
		}
	}
	var card map[string]any
	if err := json.Unmarshal(data, &card); err != nil {
		return nil, fmt.Errorf("card is not a JSON object: %w", err)
	}
	return card, nil
}

// receiver resolves the --to-user/--to-chat flags, falling back to the
// configured default user, then the default chat.
func (c *cli) receiver(toUser, toChat string) (bot.Receiver, error) {
	switch {
	case toUser != "" && toChat != "":
		return bot.Receiver{}, errors.New("--to-user and --to-chat are mutually exclusive")
	case toUser != "":
		return bot.ToUser(toUser), nil
	case toChat != "":
		return bot.ToChat(toChat), nil
	case c.cfg.DefaultOpenID != "":
		return bot.ToUser(c.cfg.DefaultOpenID), nil
	case c.cfg.DefaultChatID != "":
		return bot.ToChat(c.cfg.DefaultChatID), nil
	}
	return bot.Receiver{}, errors.New("no receiver: pass --to-user or --to-chat")
}

func (c *cli) uploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload an image or file and print its key",
	}

	image := &cobra.Command{
		Use:     "image PATH",
		Short:   "Upload an image",
		Args:    cobra.ExactArgs(1),
		PreRunE: c.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := c.bot.UploadImage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.print(map[string]string{"image_key": key})
		},
	}

	var fileType string
	file := &cobra.Command{
		Use:     "file PATH",
		Short:   "Upload a file",
		Args:    cobra.ExactArgs(1),
		PreRunE: c.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := c.bot.UploadFile(cmd.Context(), args[0], bot.FileType(strings.ToLower(fileType)))
			if err != nil {
				return err
			}
			return c.print(map[string]string{"file_key": key})
		},
	}
	file.Flags().StringVar(&fileType, "type", string(bot.FileStream), "opus, mp4, pdf, doc, xls, ppt or stream")

	cmd.AddCommand(image, file)
	return cmd
}

func (c *cli) downloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download an image or file uploaded by this app",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:     "image IMAGE_KEY PATH",
			Short:   "Download an image",
			Args:    cobra.ExactArgs(2),
			PreRunE: c.setup,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.bot.DownloadImage(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				return c.print(map[string]string{"path": args[1]})
			},
		},
		&cobra.Command{
			Use:     "file FILE_KEY PATH",
			Short:   "Download a file",
			Args:    cobra.ExactArgs(2),
			PreRunE: c.setup,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.bot.DownloadFile(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				return c.print(map[string]string{"path": args[1]})
			},
		},
	)
	return cmd
}
