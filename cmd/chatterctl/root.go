package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/matheus3301/chatter/internal/client"
	"github.com/matheus3301/chatter/internal/config"
	"github.com/matheus3301/chatter/internal/session"
	"github.com/spf13/cobra"
)

const callTimeout = 10 * time.Second

// globals holds the persistent flags.
type globals struct {
	session string
	user    string
	json    bool
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "chatterctl",
		Short: "Inspect and drive a chatter daemon from the shell",
		Long: `chatterctl talks to the chatterd of a session over its unix socket.
Calls are made as the user from the config file unless --user is given.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.session, "session", "", "session name (overrides config default)")
	root.PersistentFlags().StringVar(&g.user, "user", "", "user id to call as (overrides config)")
	root.PersistentFlags().BoolVar(&g.json, "json", false, "output in JSON format")

	root.AddCommand(
		newStatusCmd(g),
		newRegisterCmd(g),
		newConversationsCmd(g),
		newMessagesCmd(g),
		newUsersCmd(g),
		newSendCmd(g),
		newReplyCmd(g),
		newWatchCmd(g),
	)
	return root
}

// env is what every subcommand needs: the resolved session and config.
type env struct {
	session string
	cfg     *config.Config
	userID  string
}

func (g *globals) env() (*env, error) {
	cfg, err := config.LoadOrDefault(session.ConfigPath())
	if err != nil {
		return nil, err
	}
	name := session.Resolve(g.session, cfg)
	if err := session.ValidateName(name); err != nil {
		return nil, err
	}
	userID := cfg.User.ID
	if g.user != "" {
		userID = g.user
	}
	return &env{session: name, cfg: cfg, userID: userID}, nil
}

// connect dials the session's daemon. An identity is required unless anonymous
// is set.
func (g *globals) connect(anonymous bool) (*env, *client.Client, error) {
	e, err := g.env()
	if err != nil {
		return nil, nil, err
	}
	if e.userID == "" && !anonymous {
		return nil, nil, errors.New("no user id: set [user] id in the config or pass --user")
	}
	c, err := client.New(session.SocketPath(e.session), e.userID)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot connect to daemon for session %q: %w", e.session, err)
	}
	return e, c, nil
}

func callContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), callTimeout)
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
