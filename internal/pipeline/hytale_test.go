package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eugener/playerlookup/internal/gateway"
	"github.com/tidwall/gjson"
)

func TestNormalizeHytaleProfile(t *testing.T) {
	body := gjson.Parse(`{
		"uuid": "EF613480-5B62-44E4-A446-7FBE85D65513",
		"username": "Steve",
		"skin": {"texture": "abc"}
	}`)

	profile := normalizeHytaleProfile(body)

	if profile.RawID != "ef6134805b6244e4a4467fbe85d65513" {
		t.Fatalf("raw id = %q", profile.RawID)
	}
	if profile.ID != "ef613480-5b62-44e4-a446-7fbe85d65513" {
		t.Fatalf("id = %q", profile.ID)
	}
	if profile.Username != "Steve" {
		t.Fatalf("username = %q", profile.Username)
	}
	if profile.Avatar != "https://crafthead.net/hytale/avatar/ef613480-5b62-44e4-a446-7fbe85d65513" {
		t.Fatalf("avatar = %q", profile.Avatar)
	}
	skin, ok := profile.Meta["skin"].(map[string]any)
	if !ok || skin["texture"] != "abc" {
		t.Fatalf("meta[skin] = %v", profile.Meta["skin"])
	}
}

// hytaleOAuthMux registers the oauth2/session-pool endpoints exercised by
// internal/hytale.Manager while bootstrapping a session, mirroring
// internal/hytale/pool_test.go's newTestManager fixture.
func hytaleOAuthMux(mux *http.ServeMux) {
	var sessionSeq int32
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"access_token": "access-1", "expires_in": 3600})
	})
	mux.HandleFunc("/my-account/get-profiles", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"profiles": []map[string]any{{"uuid": "profile-uuid"}}})
	})
	mux.HandleFunc("/game-session/new", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&sessionSeq, 1)
		json.NewEncoder(w).Encode(map[string]any{
			"sessionToken":  fmt.Sprintf("session-%d", n),
			"identityToken": fmt.Sprintf("identity-%d", n),
			"expiresAt":     time.Now().UnixMilli() + 3600_000,
		})
	})
}

func TestLookupHytale_CacheHit(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/", failIfCalled(t))
	d, _ := newFakeDeps(t, mux)

	profile := &gateway.PlayerProfile{ID: "ef613480-5b62-44e4-a446-7fbe85d65513", RawID: "ef6134805b6244e4a4467fbe85d65513", Username: "Steve", Meta: map[string]any{}}
	payload, err := json.Marshal(gateway.CacheEntry{Profile: profile})
	if err != nil {
		t.Fatalf("marshal cache entry: %v", err)
	}
	d.Cache.Put(context.Background(), "hytale-profile-steve", payload, time.Hour)

	got, err := d.LookupHytale(context.Background(), "Steve")
	if err != nil {
		t.Fatalf("LookupHytale: %v", err)
	}
	if got.Username != "Steve" {
		t.Fatalf("got = %+v, want cached profile", got)
	}
}

func TestLookupHytale_UsernameLookupFallback(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	hytaleOAuthMux(mux)
	mux.HandleFunc("/profile/username/steve", func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			t.Fatalf("profile request missing Authorization header")
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"uuid": "EF613480-5B62-44E4-A446-7FBE85D65513", "username": "Steve",
		})
	})
	d, _ := newFakeDeps(t, mux)

	profile, err := d.LookupHytale(context.Background(), "Steve")
	if err != nil {
		t.Fatalf("LookupHytale: %v", err)
	}
	if profile.Username != "Steve" || profile.RawID != "ef6134805b6244e4a4467fbe85d65513" {
		t.Fatalf("profile = %+v", profile)
	}
}

func TestIsAuthFailure(t *testing.T) {
	if isAuthFailure(nil) {
		t.Fatal("nil error should not be an auth failure")
	}
}
