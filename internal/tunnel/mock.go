package tunnel

import (
	"context"
	"fmt"
	"sync"
)

// Call records a single invocation on the mock.
type Call struct {
	Method string
	Name   string
}

// Mock is an in-memory Provisioner for tests. It records every call and can
// be primed with an identity or an injected error.
type Mock struct {
	mu sync.Mutex

	// CallLog records invocations in order.
	CallLog []Call

	identity Identity
	err      error
	created  map[string]Identity
}

// NewMock returns a mock that assigns a fixed placeholder identity to every
// tunnel it creates.
func NewMock() *Mock {
	return &Mock{
		identity: Identity{UUID: "00000000-0000-0000-0000-000000000000", CredentialsPath: "/tmp/credentials.json"},
		created:  make(map[string]Identity),
	}
}

// SetIdentity primes the identity returned by subsequent Create calls.
func (m *Mock) SetIdentity(id Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identity = id
}

// SetError makes subsequent Create calls fail with err.
func (m *Mock) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Create implements Provisioner. Creating the same name twice fails, like
// the real service.
func (m *Mock) Create(ctx context.Context, name string) (Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallLog = append(m.CallLog, Call{Method: "Create", Name: name})

	if m.err != nil {
		return Identity{}, m.err
	}
	if _, ok := m.created[name]; ok {
		return Identity{}, &Error{Message: fmt.Sprintf("tunnel name %s already in use", name)}
	}

	m.created[name] = m.identity
	return m.identity, nil
}

// GetCallsFor returns the logged calls for a method name.
func (m *Mock) GetCallsFor(method string) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()

	var calls []Call
	for _, c := range m.CallLog {
		if c.Method == method {
			calls = append(calls, c)
		}
	}
	return calls
}

// Reset clears the call log, created tunnels, and any injected error.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallLog = nil
	m.err = nil
	m.created = make(map[string]Identity)
}
