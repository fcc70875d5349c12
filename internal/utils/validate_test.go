package utils

import "testing"

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email    string
		expected bool
	}{
		{"lead@college.edu", true},
		{"first.last+tag@example.co", true},
		{"no-at-sign.example.com", false},
		{"@example.com", false},
		{"user@", false},
		{"spaces in@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := IsValidEmail(tt.email); got != tt.expected {
				t.Errorf("IsValidEmail(%q) = %v, expected %v", tt.email, got, tt.expected)
			}
		})
	}
}

func TestIsDisposableEmail(t *testing.T) {
	tests := []struct {
		email    string
		expected bool
	}{
		{"someone@mailinator.com", true},
		{"someone@YopMail.com", true},
		{"someone@gmail.com", false},
		{"not-an-email", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := IsDisposableEmail(tt.email); got != tt.expected {
				t.Errorf("IsDisposableEmail(%q) = %v, expected %v", tt.email, got, tt.expected)
			}
		})
	}
}

func TestIsHTTPURL(t *testing.T) {
	tests := []struct {
		raw      string
		expected bool
	}{
		{"https://github.com/team/repo", true},
		{"http://demo.example.com", true},
		{"ftp://example.com/repo", false},
		{"github.com/team/repo", false},
		{"https://", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := IsHTTPURL(tt.raw); got != tt.expected {
				t.Errorf("IsHTTPURL(%q) = %v, expected %v", tt.raw, got, tt.expected)
			}
		})
	}
}
