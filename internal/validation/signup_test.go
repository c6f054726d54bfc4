package validation

import "testing"

func TestValidEmail_Valid(t *testing.T) {
	valids := []string{
		"a@b.com",
		"first.last@example.io",
		"first+tag@sub.example.io",
		"UPPER@EXAMPLE.COM",
	}
	for _, v := range valids {
		if !ValidEmail(v) {
			t.Fatalf("expected valid: %q", v)
		}
	}
}

func TestValidEmail_Invalid(t *testing.T) {
	invalids := []string{
		"",            // empty
		"a@b",         // domain without dot
		"a b@c.com",   // space in local part
		"@b.com",      // empty local part
		"a@",          // empty domain
		"a@@b.com",    // double at
		"a@b .com",    // space in domain
		"plainstring", // no at
	}
	for _, v := range invalids {
		if ValidEmail(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}

func TestValidPassword(t *testing.T) {
	if ValidPassword("short") {
		t.Fatalf("expected 5-char password to be rejected")
	}
	if !ValidPassword("password1") {
		t.Fatalf("expected 9-char password to be accepted")
	}
	if !ValidPassword("12345678") {
		t.Fatalf("expected exactly-8-char password to be accepted")
	}
}
