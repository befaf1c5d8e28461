package validation

import "testing"

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  bool
	}{
		{name: "plain address", email: "user@example.com", want: true},
		{name: "subdomain", email: "user@mail.example.com", want: true},
		{name: "plus tag", email: "user+tag@example.com", want: true},
		{name: "empty", email: "", want: false},
		{name: "no at sign", email: "user.example.com", want: false},
		{name: "no domain", email: "user@", want: false},
		{name: "display name form", email: "User <user@example.com>", want: false},
		{name: "spaces", email: "us er@example.com", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidEmail(tt.email); got != tt.want {
				t.Fatalf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestIsValidName(t *testing.T) {
	if IsValidName("A") {
		t.Fatalf("single-character name must be invalid")
	}
	if !IsValidName("Al") {
		t.Fatalf("two-character name must be valid")
	}
	if !IsValidName("Юля") {
		t.Fatalf("non-ASCII name must be measured in runes")
	}
}

func TestIsValidPassword(t *testing.T) {
	if IsValidPassword("1234567") {
		t.Fatalf("seven-character password must be invalid")
	}
	if !IsValidPassword("12345678") {
		t.Fatalf("eight-character password must be valid")
	}
}
