package main

import (
	"net/url"
	"regexp"
	"strings"
)

var passwordParam = regexp.MustCompile(`(?i)password=\S+`)

// redactURL drops the password from a connection URL, keeping the user name.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}
	if u.User != nil {
		name := u.User.Username()
		if name == "" {
			name = "redacted"
		}
		u.User = url.User(name)
	}
	return u.String()
}

// sanitizeError returns err's message with every secret URL redacted and any
// password=... parameter masked.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, s := range secrets {
		if s != "" {
			msg = strings.ReplaceAll(msg, s, redactURL(s))
		}
	}
	return passwordParam.ReplaceAllString(msg, "password=redacted")
}
