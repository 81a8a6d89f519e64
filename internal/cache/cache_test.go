package cache

import (
	"context"
	"strings"
	"testing"
)

func TestUserKeys_ScopedToUser(t *testing.T) {
	keys := UserKeys("uid-alice")
	if len(keys) != 2 {
		t.Fatalf("len(keys) = %d, want 2", len(keys))
	}
	for _, k := range keys {
		if !strings.HasSuffix(k, ":uid-alice") {
			t.Errorf("key %q not scoped to uid-alice", k)
		}
		if !strings.HasPrefix(k, "forum:messages:") {
			t.Errorf("key %q outside the forum:messages namespace", k)
		}
	}
}

func TestNoop_NeverFails(t *testing.T) {
	if err := (Noop{}).InvalidateUser(context.Background(), "anyone"); err != nil {
		t.Errorf("Noop.InvalidateUser = %v, want nil", err)
	}
}

func TestNewRedisInvalidator_BadURL(t *testing.T) {
	if _, err := NewRedisInvalidator("not-a-url"); err == nil {
		t.Error("NewRedisInvalidator accepted a malformed URL")
	}
}
