package tui

import "strings"

// Command is a parsed ":" command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command line without the leading ':'. The name is
// case-insensitive.
func ParseCommand(input string) Command {
	name, args, _ := strings.Cut(strings.TrimSpace(input), " ")
	return Command{Name: strings.ToLower(name), Args: strings.TrimSpace(args)}
}
