package gmailapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/99designs/keyring"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"gmailfilter2csv/pkg/credential"
)

func writeClientSecret(t *testing.T, tokenURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.json")
	content := fmt.Sprintf(`{"installed": {
		"client_id": "test-client",
		"client_secret": "test-secret",
		"redirect_uris": ["http://localhost"],
		"auth_uri": "https://accounts.example.com/o/oauth2/auth",
		"token_uri": %q
	}}`, tokenURL)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if code := r.Form.Get("code"); code != "the-code" {
			t.Errorf("code = %q, want the-code", code)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token": "fresh", "token_type": "Bearer", "refresh_token": "r", "expires_in": 3600}`)
	}))
}

func TestNewServiceAuthorizesOnFirstUse(t *testing.T) {
	tokenServer := newTokenServer(t)
	defer tokenServer.Close()
	api := newTestServer(t, "Bearer fresh")
	defer api.Close()

	store := credential.NewKeyringStore(keyring.NewArrayKeyring(nil))
	var out bytes.Buffer
	prompt := Prompt{In: strings.NewReader("the-code\n"), Out: &out}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv, err := NewService(context.Background(), writeClientSecret(t, tokenServer.URL), store, prompt, logger,
		option.WithEndpoint(api.URL+"/"))
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}

	if !strings.Contains(out.String(), "client_id=test-client") {
		t.Errorf("prompt did not include the authorization URL: %q", out.String())
	}

	saved, err := store.Load()
	if err != nil {
		t.Fatalf("token was not saved: %v", err)
	}
	if saved.AccessToken != "fresh" {
		t.Errorf("saved AccessToken = %q, want fresh", saved.AccessToken)
	}

	if _, err := NewClient(srv, "me", logger).Rows(context.Background()); err != nil {
		t.Fatalf("Rows returned error: %v", err)
	}
}

func TestNewServiceReusesStoredToken(t *testing.T) {
	api := newTestServer(t, "Bearer stored")
	defer api.Close()

	store := credential.FileStore{Path: filepath.Join(t.TempDir(), "token.json")}
	if err := store.Save(&oauth2.Token{AccessToken: "stored", TokenType: "Bearer"}); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	prompt := Prompt{In: strings.NewReader(""), Out: &out}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv, err := NewService(context.Background(), writeClientSecret(t, "http://127.0.0.1:1/token"), store, prompt, logger,
		option.WithEndpoint(api.URL+"/"))
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected prompt: %q", out.String())
	}
	if _, err := NewClient(srv, "me", logger).Rows(context.Background()); err != nil {
		t.Fatalf("Rows returned error: %v", err)
	}
}

func TestNewServiceErrors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := credential.NewKeyringStore(keyring.NewArrayKeyring(nil))

	t.Run("missing client secret", func(t *testing.T) {
		_, err := NewService(context.Background(), filepath.Join(t.TempDir(), "none.json"), store,
			Prompt{In: strings.NewReader(""), Out: io.Discard}, logger)
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected os.ErrNotExist, got %v", err)
		}
	})

	t.Run("empty authorization code", func(t *testing.T) {
		_, err := NewService(context.Background(), writeClientSecret(t, "http://127.0.0.1:1/token"), store,
			Prompt{In: strings.NewReader("\n"), Out: io.Discard}, logger)
		if err == nil || !strings.Contains(err.Error(), "authorization code") {
			t.Errorf("expected authorization code error, got %v", err)
		}
	})
}
