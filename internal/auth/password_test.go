package auth

import (
	"encoding/base64"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"too short", "short", ErrPasswordTooShort},
		{"minimum", "12345678", nil},
		{"multibyte counted as runes", "пароль12", nil},
		{"too long", strings.Repeat("a", MaxPasswordLen+1), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := ValidatePassword(tt.password); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePassword(%q) = %v, want %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestBasicFromRequest(t *testing.T) {
	t.Parallel()

	encode := func(s string) string {
		return base64.StdEncoding.EncodeToString([]byte(s))
	}

	tests := []struct {
		name      string
		header    string
		wantOK    bool
		wantEmail string
		wantPass  string
	}{
		{"valid", "Basic " + encode("reader@shelfdesk.test:secret123"), true, "reader@shelfdesk.test", "secret123"},
		{"normalizes email", "basic " + encode(" Reader@Shelfdesk.TEST :p:with:colons"), true, "reader@shelfdesk.test", "p:with:colons"},
		{"missing header", "", false, "", ""},
		{"bearer", "Bearer sd_live_abc123_x", false, "", ""},
		{"bad base64", "Basic !!!", false, "", ""},
		{"no colon", "Basic " + encode("reader"), false, "", ""},
		{"empty password", "Basic " + encode("reader@shelfdesk.test:"), false, "", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			creds, ok := BasicFromRequest(req)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if creds.Email != tt.wantEmail || creds.Password != tt.wantPass {
				t.Errorf("creds = %+v, want %q/%q", creds, tt.wantEmail, tt.wantPass)
			}
		})
	}
}
