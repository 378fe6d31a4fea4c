package main

import (
	"errors"
	"os/user"
	"strings"

	"github.com/matheus3301/chatter/internal/config"
)

// identity resolves who the TUI acts as: flags first, then the config file,
// then the OS account.
func identity(cfg config.User, idFlag, nameFlag string) (config.User, error) {
	me := cfg
	if idFlag != "" {
		me.ID = idFlag
	}
	if nameFlag != "" {
		me.Name = nameFlag
	}
	if me.ID == "" {
		u, err := user.Current()
		if err != nil {
			return me, errors.New("no user id: set [user] id in the config or pass --user")
		}
		me.ID = u.Username
		if me.Name == "" {
			me.Name = strings.TrimSpace(u.Name)
		}
	}
	if me.Name == "" {
		me.Name = me.ID
	}
	if me.Username == "" {
		me.Username = me.ID
	}
	return me, nil
}
