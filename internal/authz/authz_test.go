package authz_test

import (
	"testing"

	"github.com/chgasparoto/tf-aws-serverless/internal/authz"
)

func TestAuthorize(t *testing.T) {
	cases := []struct {
		name    string
		caller  string
		target  string
		allowed bool
	}{
		{"no target is always allowed", "user-1", "", true},
		{"own resource is allowed", "user-1", "user-1", true},
		{"foreign resource is denied", "user-1", "user-2", false},
		{"temp id never matches a real subject", "real-sub", "temp_abc123", false},
		{"case sensitive match", "User-1", "user-1", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := authz.Authorize(tc.caller, tc.target); got != tc.allowed {
				t.Fatalf("Authorize(%q, %q) = %v, want %v", tc.caller, tc.target, got, tc.allowed)
			}
		})
	}
}
