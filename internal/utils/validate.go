package utils

import (
	"net/url"
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@(.+)$`)

var disposableDomains = map[string]bool{
	"tempmail.com":      true,
	"throwawaymail.com": true,
	"tmpmail.org":       true,
	"temp-mail.org":     true,
	"guerrillamail.com": true,
	"sharklasers.com":   true,
	"mailinator.com":    true,
	"yopmail.com":       true,
}

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// IsDisposableEmail reports whether the email's domain is a known
// throwaway mailbox provider.
func IsDisposableEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	return disposableDomains[strings.ToLower(email[at+1:])]
}

// IsHTTPURL reports whether raw is an absolute http or https URL with a host.
func IsHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
