package tunnel

import (
	"context"
	"fmt"
	"testing"
)

func TestMock_Create(t *testing.T) {
	mock := NewMock()
	ctx := context.Background()

	mock.SetIdentity(Identity{UUID: "abc-123", CredentialsPath: "/tmp/abc-123.json"})

	identity, err := mock.Create(ctx, "my-site")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if identity.UUID != "abc-123" {
		t.Errorf("UUID = %q, want %q", identity.UUID, "abc-123")
	}

	calls := mock.GetCallsFor("Create")
	if len(calls) != 1 {
		t.Fatalf("len(calls) = %d, want 1", len(calls))
	}
	if calls[0].Name != "my-site" {
		t.Errorf("call name = %q, want %q", calls[0].Name, "my-site")
	}
}

func TestMock_CreateWithError(t *testing.T) {
	mock := NewMock()
	ctx := context.Background()

	expectedErr := fmt.Errorf("creation failed")
	mock.SetError(expectedErr)

	_, err := mock.Create(ctx, "my-site")
	if err != expectedErr {
		t.Errorf("err = %v, want %v", err, expectedErr)
	}
}

func TestMock_DuplicateName(t *testing.T) {
	mock := NewMock()
	ctx := context.Background()

	if _, err := mock.Create(ctx, "my-site"); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	_, err := mock.Create(ctx, "my-site")
	if err == nil {
		t.Fatal("second Create with the same name should fail")
	}
	if _, ok := err.(*Error); !ok {
		t.Errorf("error type = %T, want *Error", err)
	}
}

func TestMock_Reset(t *testing.T) {
	mock := NewMock()
	ctx := context.Background()

	mock.SetError(fmt.Errorf("boom"))
	mock.Create(ctx, "a")
	mock.Reset()

	if len(mock.CallLog) != 0 {
		t.Errorf("len(CallLog) = %d after reset, want 0", len(mock.CallLog))
	}
	if _, err := mock.Create(ctx, "a"); err != nil {
		t.Errorf("Create should succeed after reset: %v", err)
	}
}
