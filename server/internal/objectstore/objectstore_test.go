package objectstore

import (
	"context"
	"testing"
)

func TestUploadWithoutEndpointIsNoop(t *testing.T) {
	s, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := s.Upload(context.Background(), "news/", "https://example.com/photo.jpg")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if got != "https://example.com/photo.jpg" {
		t.Errorf("expected unconfigured store to pass through source URL, got %q", got)
	}
}

func TestEnsureBucketWithoutEndpointIsNoop(t *testing.T) {
	s, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.EnsureBucket(context.Background()); err != nil {
		t.Errorf("expected no-op EnsureBucket to succeed, got %v", err)
	}
}

func TestObjectKeyUsesExtensionFromURL(t *testing.T) {
	key := objectKey("https://cdn.example.com/a/b/photo.png?w=200", "")
	if got := key[len(key)-4:]; got != ".png" {
		t.Errorf("expected .png extension, got %q", got)
	}
}

func TestObjectKeyFallsBackToContentType(t *testing.T) {
	key := objectKey("https://cdn.example.com/a/b/photo", "image/webp")
	if got := key[len(key)-5:]; got != ".webp" {
		t.Errorf("expected .webp extension from content-type, got %q", got)
	}
}
