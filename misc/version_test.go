package misc

import "testing"

func TestIdentity(t *testing.T) {
	if GetAppName() != "richdoc" {
		t.Errorf("GetAppName() = %q", GetAppName())
	}
	if GetVersion() == "" {
		t.Error("GetVersion() is empty")
	}
	if GetGitHash() == "" {
		t.Error("GetGitHash() is empty")
	}
}
