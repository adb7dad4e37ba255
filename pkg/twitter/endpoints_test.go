package twitter

import (
	"strings"
	"testing"
)

func TestUserTimelineURL(t *testing.T) {
	url := UserTimelineURL(BaseURL, "jack", 0, 200)
	if !strings.Contains(url, "screen_name=jack") {
		t.Errorf("Expected screen_name=jack in URL, got %s", url)
	}
	if !strings.Contains(url, "count=200") {
		t.Errorf("Expected count=200 in URL, got %s", url)
	}
	if strings.Contains(url, "max_id") {
		t.Errorf("Expected no max_id for first page, got %s", url)
	}

	url = UserTimelineURL(BaseURL, "jack", 12345, 200)
	if !strings.Contains(url, "max_id=12345") {
		t.Errorf("Expected max_id=12345 in URL, got %s", url)
	}
}

func TestUserTimelineURLClampsCount(t *testing.T) {
	url := UserTimelineURL(BaseURL, "jack", 0, 5000)
	if !strings.Contains(url, "count=200") {
		t.Errorf("Expected count clamped to 200, got %s", url)
	}

	url = UserTimelineURL(BaseURL, "jack", 0, 0)
	if !strings.Contains(url, "count=200") {
		t.Errorf("Expected default count 200, got %s", url)
	}
}

func TestFollowerIDsURL(t *testing.T) {
	url := FollowerIDsURL(BaseURL, "jack", 0)
	if !strings.Contains(url, "cursor=-1") {
		t.Errorf("Expected cursor=-1 for first page, got %s", url)
	}

	url = FollowerIDsURL(BaseURL, "jack", 98765)
	if !strings.Contains(url, "cursor=98765") {
		t.Errorf("Expected cursor=98765 in URL, got %s", url)
	}
}

func TestIsValidScreenName(t *testing.T) {
	valid := []string{"jack", "NASA", "user_123", "a", "exactly15chars_"}
	for _, name := range valid {
		if !IsValidScreenName(name) {
			t.Errorf("Expected %q to be valid", name)
		}
	}

	invalid := []string{"", "has space", "way_too_long_for_twitter", "semi;colon", "dot.name", "@jack"}
	for _, name := range invalid {
		if IsValidScreenName(name) {
			t.Errorf("Expected %q to be invalid", name)
		}
	}
}

func TestSanitizeScreenName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"@jack", "jack"},
		{"jack/", "jack"},
		{"jack ", "jack"},
		{"@jack/ ", "jack"},
		{"jack", "jack"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SanitizeScreenName(tt.input); got != tt.expected {
			t.Errorf("SanitizeScreenName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
