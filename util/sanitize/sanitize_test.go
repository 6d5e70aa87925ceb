package sanitize

import "testing"

func TestForSessionID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"simple string", "build", "build"},
		{"with spaces", "npm run dev", "npm-run-dev"},
		{"with dots and slashes", "./scripts/test.sh", "scripts-test-sh"},
		{"keeps underscores", "my_session", "my_session"},
		{"special characters", "vim@main#1", "vim-main-1"},
		{"multiple dashes", "a---b", "a-b"},
		{"leading/trailing separators", "--zsh__", "zsh"},
		{"uppercase", "HelloWorld", "helloworld"},
		{"only symbols", "!!!", ""},
		{"truncated", "this is a very long session name that keeps going and going", "this-is-a-very-long-session-name-that-ke"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ForSessionID(tt.input)
			if result != tt.expected {
				t.Errorf("ForSessionID(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
