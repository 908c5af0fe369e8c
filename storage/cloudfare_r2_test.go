package storage

import (
	"context"
	"testing"
)

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		key  string
		want string
	}{
		{"host only", "https://cdn.example.com", "payment-slips/7/a.png", "https://cdn.example.com/payment-slips/7/a.png"},
		{"base with path", "https://cdn.example.com/files", "payment-slips/a.pdf", "https://cdn.example.com/files/payment-slips/a.pdf"},
		{"trailing slash and leading slash", "https://cdn.example.com/files/", "/a.png", "https://cdn.example.com/files/a.png"},
		{"space is escaped", "https://cdn.example.com", "slips/my slip.png", "https://cdn.example.com/slips/my%20slip.png"},
		{"empty key", "https://cdn.example.com", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, err := parsePublicBaseURL(tt.base)
			if err != nil {
				t.Fatalf("parsePublicBaseURL: %v", err)
			}
			if got := publicURL(base, tt.key); got != tt.want {
				t.Errorf("publicURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParsePublicBaseURLRejectsRelative(t *testing.T) {
	if _, err := parsePublicBaseURL("cdn.example.com/files"); err == nil {
		t.Error("expected error for URL without scheme")
	}
}

func TestNewCloudflareR2UploaderRequiresAllFields(t *testing.T) {
	_, err := NewCloudflareR2Uploader(context.Background(), CloudflareR2UploaderConfig{
		AccountID:   "acc",
		AccessKeyID: "key",
		BucketName:  "bucket",
	})
	if err == nil {
		t.Fatal("expected error for incomplete configuration")
	}
}
