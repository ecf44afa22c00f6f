package export

import (
	"strings"
	"testing"
	"time"
)

func TestRenderHistoryHTML(t *testing.T) {
	submitted := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	data := TemplateData{
		Title:       "Launch Teaser <Cut 2>",
		ItemID:      "vid_1",
		ItemType:    "video",
		Status:      "APPROVED",
		Version:     2,
		Stage:       2,
		SubmittedBy: "author-1",
		SubmittedAt: submitted,
		Entries: []TemplateEntry{
			{At: submitted.Add(2 * time.Hour), Actor: "reviewer-1", Action: "approved", Detail: "stage 1 approval"},
			{At: submitted.Add(4 * time.Hour), Actor: "reviewer-2", Action: "approved", Detail: "final approval"},
		},
	}

	html, err := RenderHistoryHTML(data)
	if err != nil {
		t.Fatalf("RenderHistoryHTML() error = %v", err)
	}

	for _, want := range []string{"vid_1", "status approved", "stage 1 approval", "final approval", "reviewer-2"} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
	// Titles are user input and must be escaped.
	if strings.Contains(html, "<Cut 2>") {
		t.Error("title not HTML-escaped")
	}
}

func TestRenderHistoryHTMLEmptyTrail(t *testing.T) {
	html, err := RenderHistoryHTML(TemplateData{
		Title: "Quiet Item", ItemID: "vid_2", ItemType: "video",
		Status: "REVIEW_PENDING", SubmittedBy: "author-1", SubmittedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("RenderHistoryHTML() error = %v", err)
	}
	if !strings.Contains(html, "No decisions recorded") {
		t.Error("empty trail placeholder missing")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "Hello-World"},
		{"Launch Teaser v1.2", "Launch-Teaser-v12"},
		{"Special!@#$%Chars", "SpecialChars"},
		{"", "history"},
		{"Very Long Title That Exceeds Fifty Characters Limit", "Very-Long-Title-That-Exceeds-Fifty-Characters-Limi"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := sanitizeFilename(tt.input)
			if result != tt.expected {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello world", "hello%20world"},
		{"test+sign", "test%2Bsign"},
		{"special<>", "special%3C%3E"},
		{"normal-text.txt", "normal-text.txt"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := percentEncodeForDataURL(tt.input)
			if result != tt.expected {
				t.Errorf("percentEncodeForDataURL(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
