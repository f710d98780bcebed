package tui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsNewerVersion(t *testing.T) {
	tests := []struct {
		latest  string
		current string
		want    bool
	}{
		{"1.0.1", "1.0.0", true},
		{"1.1.0", "1.0.0", true},
		{"2.0.0", "1.9.9", true},
		{"v1.0.1", "v1.0.0", true},
		{"1.0.0", "1.0.0", false},
		{"1.0.0", "1.0.1", false},
		{"0.9.0", "1.0.0", false},
		{"dev", "dev", false},
		{"abc", "def", false},
		{"v0.5.0", "0.4.2", true},
		{"0.4.2", "v0.5.0", false},
	}

	for _, tc := range tests {
		t.Run(tc.latest+"_vs_"+tc.current, func(t *testing.T) {
			got := isNewerVersion(tc.latest, tc.current)
			if got != tc.want {
				t.Errorf("isNewerVersion(%q, %q) = %v, want %v", tc.latest, tc.current, got, tc.want)
			}
		})
	}
}

func TestCheckVersionSkipsDevBuilds(t *testing.T) {
	if cmd := checkVersion("dev"); cmd != nil {
		t.Error("expected nil cmd for dev build")
	}
	if cmd := checkVersion(""); cmd != nil {
		t.Error("expected nil cmd for empty version")
	}
}

// withReleaseServer points releaseURL at a mock GitHub API for one test.
func withReleaseServer(t *testing.T, h http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	orig := releaseURL
	releaseURL = srv.URL
	t.Cleanup(func() { releaseURL = orig })
}

func releaseHandler(tag string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"tag_name": tag}) //nolint:errcheck
	}
}

func TestCheckVersionMockServer(t *testing.T) {
	withReleaseServer(t, releaseHandler("v0.5.0"))

	msg := checkVersion("0.4.0")().(versionCheckMsg)
	if !msg.hasUpdate {
		t.Error("expected hasUpdate=true for 0.5.0 > 0.4.0")
	}
	if msg.latestVersion != "v0.5.0" {
		t.Errorf("expected latestVersion=v0.5.0, got %q", msg.latestVersion)
	}
}

func TestCheckVersionMockServerNoUpdate(t *testing.T) {
	withReleaseServer(t, releaseHandler("v0.4.0"))

	msg := checkVersion("0.4.0")().(versionCheckMsg)
	if msg.hasUpdate {
		t.Error("expected hasUpdate=false for same version")
	}
}

func TestCheckVersionMockServer404(t *testing.T) {
	withReleaseServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	msg := checkVersion("0.4.0")().(versionCheckMsg)
	if msg.hasUpdate {
		t.Error("expected hasUpdate=false on 404")
	}
}
