package actor

import (
	"fmt"
	"regexp"
)

// ErrInvalidName indicates that an actor name contains characters outside
// the allowed [A-Za-z0-9_-] set.
var ErrInvalidName = fmt.Errorf("invalid actor name")

// validName matches the set of characters an actor name may contain. Names
// become path segments, so separators and whitespace are rejected.
var validName = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)

// validateName checks that the given actor name can be used as a path
// segment.
func validateName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	return nil
}

// ActorID uniquely identifies an actor within a system for its lifetime.
// ID 0 is reserved for the synthetic big-bang parent, 1 through 3 for the
// user, system and temp guardians; user actors are allocated IDs starting at
// 100.
type ActorID = uint64

// ActorURI is the immutable identity of an actor: its allocated ID, its
// process-wide unique path, its name (the last path segment) and the host
// the system runs on. The host field is informational only; routing is
// always local.
type ActorURI struct {
	// UID is the monotonically allocated actor ID.
	UID ActorID

	// Path is the /-separated, process-wide unique actor path.
	Path string

	// Name is the last segment of Path.
	Name string

	// Host names the system host. Informational only.
	Host string
}

// String renders the URI as host:path, matching how actors are displayed in
// logs and the printed tree.
func (u ActorURI) String() string {
	return fmt.Sprintf("%s:%s", u.Host, u.Path)
}

// childPath joins a parent path with a child name. The root path "/" is the
// only path with a trailing separator, so it is special-cased.
func childPath(parentPath, name string) string {
	if parentPath == "/" {
		return "/" + name
	}

	return parentPath + "/" + name
}
