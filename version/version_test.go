package version

import (
	"strings"
	"testing"
)

func TestGetUsesLinkerValues(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	defer func() { Version, Commit = oldVersion, oldCommit }()

	Version, Commit = "1.2.3", "abcdef0123456789"
	info := Get()
	if info.Version != "1.2.3" {
		t.Errorf("expected version 1.2.3, got %q", info.Version)
	}
	if info.Commit != "abcdef012345" {
		t.Errorf("expected commit truncated to 12 chars, got %q", info.Commit)
	}
}

func TestShort(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	defer func() { Version, Commit = oldVersion, oldCommit }()

	Version, Commit = "2.0.0", "abc123"
	if s := Short(); !strings.HasPrefix(s, "2.0.0-abc123") {
		t.Errorf("unexpected short version %q", s)
	}
}
