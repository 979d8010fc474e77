package domainutil

import "testing"

func TestRegistrable(t *testing.T) {
	cases := []struct {
		host string
		want string
	}{
		{"www.example.com", "example.com"},
		{"example.com", "example.com"},
		{"a.b.example.co.uk", "example.co.uk"},
		{"localhost", ""},
		{"127.0.0.1", ""},
		{"::1", ""},
		{"example.com.", "example.com"},
		{"", ""},
	}
	for _, c := range cases {
		got := Registrable(c.host)
		if got != c.want {
			t.Errorf("Registrable(%q): got %q, want %q", c.host, got, c.want)
		}
	}
}

func TestSameSite(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"https://www.example.com/login", "https://accounts.example.com/oauth", true},
		{"https://example.com", "https://example.org", false},
		{"http://localhost:8080/a", "http://localhost:9090/b", true},
		{"http://localhost:8080/a", "http://127.0.0.1:8080/b", false},
		{"not a url", "https://example.com", false},
	}
	for _, c := range cases {
		got := SameSite(c.a, c.b)
		if got != c.want {
			t.Errorf("SameSite(%q, %q): got %v, want %v", c.a, c.b, got, c.want)
		}
	}
}
