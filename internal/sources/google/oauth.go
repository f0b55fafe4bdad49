package google

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	gsheet "google.golang.org/api/sheets/v4"
)

// OAuthClient identifies a desktop OAuth client, either inline or as a file.
type OAuthClient struct {
	JSON string
	File string
}

// Configured reports whether either form of the client was supplied.
func (c OAuthClient) Configured() bool {
	return strings.TrimSpace(c.JSON) != "" || strings.TrimSpace(c.File) != ""
}

// OAuthConfig builds the read-only Sheets OAuth configuration for client.
func OAuthConfig(client OAuthClient) (*oauth2.Config, error) {
	var raw []byte
	switch {
	case strings.TrimSpace(client.JSON) != "":
		raw = []byte(client.JSON)
	case strings.TrimSpace(client.File) != "":
		b, err := os.ReadFile(strings.TrimSpace(client.File))
		if err != nil {
			return nil, fmt.Errorf("read oauth client file: %w", err)
		}
		raw = b
	default:
		return nil, errors.New("missing oauth client (set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE)")
	}
	cfg, err := googleoauth.ConfigFromJSON(raw, gsheet.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse oauth client: %w", err)
	}
	return cfg, nil
}

func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()

	var tok oauth2.Token
	if err := json.NewDecoder(f).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decode token file: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("token file %s holds no token", path)
	}
	return &tok, nil
}

// SaveToken writes tok to path, readable by the owner only.
func SaveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		f.Close()
		return fmt.Errorf("write token: %w", err)
	}
	return f.Close()
}
