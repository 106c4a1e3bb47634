package gmailapi

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"gmailfilter2csv/pkg/credential"
)

// Scope is the only OAuth scope requested; filters and labels are read-only.
const Scope = gmail.GmailReadonlyScope

// Prompt is used to complete the first authorization in a terminal.
type Prompt struct {
	In  io.Reader
	Out io.Writer
}

// NewService authorizes against the Gmail API with the installed-app client
// secret in credentialsFile. A stored token is reused; otherwise the user is
// asked for an authorization code and the resulting token is saved.
func NewService(ctx context.Context, credentialsFile string, store credential.TokenStore, prompt Prompt, log *slog.Logger, opts ...option.ClientOption) (*gmail.Service, error) {
	// #nosec G304 -- credentials path provided via config.
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}
	oauthConfig, err := google.ConfigFromJSON(b, Scope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}

	tok, err := store.Load()
	if errors.Is(err, credential.ErrTokenNotFound) {
		tok, err = tokenFromWeb(ctx, oauthConfig, prompt)
		if err != nil {
			return nil, err
		}
		if err := store.Save(tok); err != nil {
			return nil, fmt.Errorf("unable to save oauth token: %w", err)
		}
		log.Info("saved oauth token")
	} else if err != nil {
		return nil, err
	}

	opts = append([]option.ClientOption{option.WithHTTPClient(oauthConfig.Client(ctx, tok))}, opts...)
	srv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return srv, nil
}

func tokenFromWeb(ctx context.Context, config *oauth2.Config, prompt Prompt) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	if _, err := fmt.Fprintf(prompt.Out, "Go to the following link in your browser then type the "+
		"authorization code: \n%v\n", authURL); err != nil {
		return nil, err
	}

	line, err := bufio.NewReader(prompt.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unable to read authorization code: %w", err)
	}
	code := strings.TrimSpace(line)
	if code == "" {
		return nil, errors.New("unable to read authorization code: empty input")
	}

	tok, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return tok, nil
}
