package db

import "testing"

func TestContainsPattern(t *testing.T) {
	cases := map[string]string{
		"fraude":   "%fraude%",
		"100%":     `%100\%%`,
		"BO_2026":  `%BO\_2026%`,
		`C:\casos`: `%C:\\casos%`,
		"":         "%%",
	}
	for in, want := range cases {
		if got := ContainsPattern(in); got != want {
			t.Fatalf("ContainsPattern(%q) = %q, want %q", in, got, want)
		}
	}
}
