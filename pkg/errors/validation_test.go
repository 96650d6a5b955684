package errors

import (
	"strings"
	"testing"
)

func TestValidateWidgetID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"uuid", "8f14e45f-ceea-467f-a8e4-6b2a1d3c9f10", false},
		{"short", "w1", false},
		{"with underscore", "link_widget", false},
		{"with dot", "w.1", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 200), true},
		{"path traversal", "..", true},
		{"slash", "a/b", true},
		{"backslash", "a\\b", true},
		{"null byte", "a\x00b", true},
		{"newline", "a\nb", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWidgetID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateWidgetID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidID) {
				t.Errorf("ValidateWidgetID(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidID)
			}
		})
	}
}

func TestValidatePageIDMessage(t *testing.T) {
	err := ValidatePageID("")
	if err == nil {
		t.Fatal("expected error for empty page id")
	}
	if got := UserMessage(err); got != "page id cannot be empty" {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"json", "page.json", false},
		{"yaml", "pages/home.yaml", false},
		{"yml upper", "HOME.YML", false},
		{"absolute", "/tmp/page.json", false},

		{"empty", "", true},
		{"wrong extension", "page.txt", true},
		{"no extension", "page", true},
		{"control char", "pa\x01ge.json", true},
		{"too long", strings.Repeat("a", 600) + ".json", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
