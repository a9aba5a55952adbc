package llm

import (
	"errors"
	"fmt"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare json",
			input: `{"title": "Test"}`,
			want:  `{"title": "Test"}`,
		},
		{
			name:  "json fence",
			input: "```json\n{\"title\": \"Test\"}\n```",
			want:  `{"title": "Test"}`,
		},
		{
			name:  "plain fence",
			input: "```\n{\"title\": \"Test\"}\n```",
			want:  `{"title": "Test"}`,
		},
		{
			name:  "fence with surrounding prose",
			input: "Here is the digest:\n```json\n{\"title\": \"Test\"}\n```\nLet me know if you need more.",
			want:  `{"title": "Test"}`,
		},
		{
			name:  "unterminated fence",
			input: "```json\n{\"title\": \"Test\"}",
			want:  `{"title": "Test"}`,
		},
		{
			name:  "surrounding whitespace",
			input: "  \n[1, 2, 3]\n ",
			want:  `[1, 2, 3]`,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ExtractJSON(c.input); got != c.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", c.input, got, c.want)
			}
		})
	}
}

func TestIsRateLimit(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"status code", errors.New("googleapi: Error 429: quota exceeded"), true},
		{"phrase", errors.New("Rate Limit exceeded, slow down"), true},
		{"too many requests", errors.New("server said Too Many Requests"), true},
		{"wrapped", fmt.Errorf("generation failed: %w", errors.New("429 RESOURCE_EXHAUSTED")), true},
		{"unrelated", errors.New("connection refused"), false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := IsRateLimit(c.err); got != c.want {
				t.Errorf("IsRateLimit(%v) = %v, want %v", c.err, got, c.want)
			}
		})
	}
}
