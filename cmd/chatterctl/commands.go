package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/matheus3301/chatter/internal/config"
	"github.com/matheus3301/chatter/internal/lock"
	"github.com/matheus3301/chatter/internal/messenger"
	"github.com/matheus3301/chatter/internal/session"
	"github.com/spf13/cobra"
)

func newStatusCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, c, err := g.connect(true)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := callContext(cmd)
			defer cancel()

			st, err := c.Status(ctx)
			if err != nil {
				holder, lockErr := lock.Inspect(session.LockPath(e.session))
				switch {
				case errors.Is(lockErr, fs.ErrNotExist):
					return fmt.Errorf("daemon for session %q is not running", e.session)
				case lockErr == nil && holder.PID > 0:
					return fmt.Errorf("daemon pid %d holds session %q but does not answer: %w", holder.PID, e.session, err)
				}
				return err
			}
			if g.json {
				return outputJSON(cmd.OutOrStdout(), st)
			}
			holder, _ := lock.Inspect(session.LockPath(e.session))
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Session:\t%s\n", st.Session)
			fmt.Fprintf(w, "State:\t%s\n", st.State)
			fmt.Fprintf(w, "PID:\t%d\n", holder.PID)
			fmt.Fprintf(w, "Uptime:\t%s\n", (time.Duration(st.UptimeMs) * time.Millisecond).Round(time.Second))
			fmt.Fprintf(w, "Users:\t%s\n", humanize.Comma(st.Users))
			fmt.Fprintf(w, "Conversations:\t%s\n", humanize.Comma(st.Conversations))
			fmt.Fprintf(w, "Messages:\t%s\n", humanize.Comma(st.Messages))
			fmt.Fprintf(w, "Events:\t%s\n", humanize.Comma(st.LastPosition))
			fmt.Fprintf(w, "Subscribers:\t%d\n", st.Subscribers)
			return w.Flush()
		},
	}
}

func newRegisterCmd(g *globals) *cobra.Command {
	var name, username string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create or rename the calling user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, c, err := g.connect(false)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			defaults := config.User{ID: e.userID, Name: e.userID, Username: e.userID}
			if e.userID == e.cfg.User.ID {
				defaults = e.cfg.User
			}
			if name == "" {
				name = defaults.Name
			}
			if username == "" {
				username = defaults.Username
			}
			ctx, cancel := callContext(cmd)
			defer cancel()

			u, err := c.Register(ctx, name, username)
			if err != nil {
				return err
			}
			if g.json {
				return outputJSON(cmd.OutOrStdout(), u)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s as %q\n", u.ID, u.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name (defaults to config)")
	cmd.Flags().StringVar(&username, "username", "", "username (defaults to config)")
	return cmd
}

func newConversationsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"convs"},
		Short:   "List your conversations, most recent first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, c, err := g.connect(false)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := callContext(cmd)
			defer cancel()

			convs, err := c.GetConversations(ctx)
			if err != nil {
				return err
			}
			if g.json {
				return outputJSON(cmd.OutOrStdout(), convs)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tRECIPIENTS\tLAST ACTIVE")
			for _, conv := range convs {
				last := "-"
				if !conv.LatestMessageAt.IsZero() {
					last = humanize.Time(conv.LatestMessageAt)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", conv.ID, conv.FormattedRecipientNames, last)
			}
			return w.Flush()
		},
	}
}

func newMessagesCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "messages <conversation-id>",
		Short: "Print the latest messages of a conversation, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, c, err := g.connect(false)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := callContext(cmd)
			defer cancel()

			msgs, err := c.GetConversation(ctx, args[0])
			if err != nil {
				return err
			}
			if g.json {
				return outputJSON(cmd.OutOrStdout(), msgs)
			}
			for _, m := range msgs {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s: %s\n", m.Timestamp.Local().Format(time.DateTime), m.SenderName, m.Text)
			}
			return nil
		},
	}
}

func newUsersCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "users [query]",
		Short: "Search the other registered users",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, c, err := g.connect(false)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := callContext(cmd)
			defer cancel()

			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			users, err := c.SearchUsers(ctx, query)
			if err != nil {
				return err
			}
			if g.json {
				return outputJSON(cmd.OutOrStdout(), users)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tUSERNAME")
			for _, u := range users {
				fmt.Fprintf(w, "%s\t%s\t%s\n", u.ID, u.Name, u.Username)
			}
			return w.Flush()
		},
	}
}

func newSendCmd(g *globals) *cobra.Command {
	var to []string
	cmd := &cobra.Command{
		Use:   "send --to <id,...> <text>",
		Short: "Send a message to the conversation with exactly the given recipients",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, c, err := g.connect(false)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			if len(to) == 0 {
				return errors.New("--to is required")
			}
			ctx, cancel := callContext(cmd)
			defer cancel()

			res, err := c.SendMessage(ctx, strings.Join(args, " "), strings.Join(to, ","))
			if err != nil {
				return err
			}
			c.UseChannel(e.cfg.Realtime.Channel)
			if err := c.PublishMessageEvent(ctx, messenger.Event{ConversationID: res.ConversationID, MessageID: res.MessageID}); err != nil {
				return fmt.Errorf("message %s sent but not published: %w", res.MessageID, err)
			}
			if g.json {
				return outputJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %s to conversation %s\n", res.MessageID, res.ConversationID)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&to, "to", nil, "recipient user ids")
	return cmd
}

func newReplyCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "reply <conversation-id> <text>",
		Short: "Reply to the newest message of a conversation",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, c, err := g.connect(false)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := callContext(cmd)
			defer cancel()

			conversationID := args[0]
			msgs, err := c.GetConversation(ctx, conversationID)
			if err != nil {
				return err
			}
			if len(msgs) == 0 {
				return fmt.Errorf("conversation %s has no messages to reply to", conversationID)
			}
			id, err := c.ReplyToMessage(ctx, strings.Join(args[1:], " "), msgs[len(msgs)-1].ID)
			if err != nil {
				return err
			}
			c.UseChannel(e.cfg.Realtime.Channel)
			if err := c.PublishMessageEvent(ctx, messenger.Event{ConversationID: conversationID, MessageID: id}); err != nil {
				return fmt.Errorf("reply %s sent but not published: %w", id, err)
			}
			if g.json {
				return outputJSON(cmd.OutOrStdout(), messenger.SendResult{ConversationID: conversationID, MessageID: id})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Replied %s in conversation %s\n", id, conversationID)
			return nil
		},
	}
}

func newWatchCmd(g *globals) *cobra.Command {
	var (
		channel string
		replay  int64
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print realtime message events until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, c, err := g.connect(false)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			if channel == "" {
				channel = e.cfg.Realtime.Channel
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			events := make(chan messenger.Event, 64)
			c.OnTransportError(func(err error) {
				fmt.Fprintf(cmd.ErrOrStderr(), "transport: %v\n", err)
			})
			sub, err := c.Subscribe(ctx, channel, replay, func(evt messenger.Event) {
				select {
				case events <- evt:
				case <-ctx.Done():
				}
			})
			if err != nil {
				return err
			}
			defer func() { _ = sub.Unsubscribe() }()
			fmt.Fprintf(cmd.ErrOrStderr(), "watching %s, Ctrl-C to stop\n", channel)

			for {
				select {
				case evt := <-events:
					if g.json {
						if err := outputJSON(out, evt); err != nil {
							return err
						}
						continue
					}
					fmt.Fprintf(out, "#%d conversation=%s message=%s\n", evt.Position, evt.ConversationID, evt.MessageID)
				case <-ctx.Done():
					return nil
				}
			}
		},
	}
	cmd.Flags().StringVar(&channel, "channel", "", "realtime channel (defaults to config)")
	cmd.Flags().Int64Var(&replay, "replay", messenger.ReplayNew, "replay from position; -1 new only, -2 everything")
	return cmd
}
