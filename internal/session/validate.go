package session

import (
	"errors"
	"fmt"
	"regexp"
)

// maxSocketPath is the smallest sun_path limit among supported platforms
// (104 bytes on macOS, 108 on Linux).
const maxSocketPath = 104

var (
	nameRegexp = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

	// ErrInvalidName is returned for a session name chatter cannot use.
	ErrInvalidName = errors.New("invalid session name")
)

// ValidateName checks that name is usable as a session: it must match
// ^[a-z0-9_-]{1,64}$ and its daemon socket must fit a unix socket address.
func ValidateName(name string) error {
	if !nameRegexp.MatchString(name) {
		return fmt.Errorf("%w %q (from --session or default_session): use 1-64 of a-z, 0-9, '-' and '_'", ErrInvalidName, name)
	}
	if sock := SocketPath(name); len(sock) >= maxSocketPath {
		return fmt.Errorf("%w %q: socket path %s is longer than %d bytes, use a shorter name or %s",
			ErrInvalidName, name, sock, maxSocketPath-1, HomeEnv)
	}
	return nil
}
