// Package tunnel creates named tunnels on the remote service. The only
// production implementation shells out to the cloudflared binary; tests use
// the Mock.
package tunnel

import "context"

// Identity is the durable result of a successful tunnel creation. It is
// produced exactly once per tunnel and never mutated afterwards.
type Identity struct {
	// UUID is the opaque identifier assigned by the remote service.
	UUID string

	// CredentialsPath points at the credentials artifact written during
	// creation. Later stages reference it as a black box.
	CredentialsPath string
}

// Error carries the remote service's diagnostic verbatim. It is not parsed
// or classified further; the workflow surfaces it as-is.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Provisioner creates a named tunnel on the remote service.
//
// Create must be treated as at-most-once: implementations and callers never
// retry automatically on an ambiguous failure such as a timeout, because a
// retry could register a duplicate remote tunnel under the same name.
type Provisioner interface {
	Create(ctx context.Context, name string) (Identity, error)
}
