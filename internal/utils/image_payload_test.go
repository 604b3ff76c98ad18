package utils

import (
	"encoding/base64"
	"errors"
	"testing"
)

// smallest valid PNG header plus IHDR chunk start
var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func TestSplitDataURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantMime string
		wantBody string
	}{
		{name: "data url", input: "data:image/png;base64,AAAA", wantMime: "image/png", wantBody: "AAAA"},
		{name: "plain base64", input: "AAAA", wantMime: "image/jpeg", wantBody: "AAAA"},
		{name: "malformed data url", input: "data:image/png,AAAA", wantMime: "image/jpeg", wantBody: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMime, gotBody := SplitDataURL(tt.input)
			if gotMime != tt.wantMime || gotBody != tt.wantBody {
				t.Errorf("SplitDataURL(%q) = (%q, %q), want (%q, %q)", tt.input, gotMime, gotBody, tt.wantMime, tt.wantBody)
			}
		})
	}
}

func TestDecodeImagePayload(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(pngBytes)

	data, ext, err := DecodeImagePayload("data:image/jpeg;base64,"+encoded, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ext != "png" {
		t.Fatalf("expected sniffed extension png, got %q", ext)
	}
	if len(data) != len(pngBytes) {
		t.Fatalf("expected %d bytes, got %d", len(pngBytes), len(data))
	}
}

func TestDecodeImagePayloadErrors(t *testing.T) {
	text := base64.StdEncoding.EncodeToString([]byte("<html><body>hi</body></html>"))

	if _, _, err := DecodeImagePayload("   ", 0); err == nil {
		t.Fatal("expected error for empty payload")
	}
	if _, _, err := DecodeImagePayload("data:image/png;base64,@@@", 0); err == nil {
		t.Fatal("expected error for invalid base64")
	}
	if _, _, err := DecodeImagePayload(text, 0); !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("expected ErrUnsupportedImage, got %v", err)
	}
	if _, _, err := DecodeImagePayload(base64.StdEncoding.EncodeToString(pngBytes), 4); err == nil {
		t.Fatal("expected error for oversized payload")
	}
}

func TestExtensionFromMime(t *testing.T) {
	if got := ExtensionFromMime("image/png; charset=binary"); got != "png" {
		t.Fatalf("expected png, got %q", got)
	}
	if got := ExtensionFromMime("image/svg+xml"); got != "" {
		t.Fatalf("expected svg to be rejected, got %q", got)
	}
}
