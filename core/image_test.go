package core

import "testing"

func TestImageSizeValidation(t *testing.T) {
	tests := []struct {
		size  ImageSize
		valid bool
	}{
		{ImageSize256x256, true},
		{ImageSize1024x1024, true},
		{ImageSize1792x1024, true},
		{ImageSize1024x1792, true},
		{ImageSize("1536x1024"), false},
		{ImageSize(""), false},
	}

	for _, tt := range tests {
		if got := tt.size.IsValid(); got != tt.valid {
			t.Errorf("ImageSize(%q).IsValid() = %v, want %v", tt.size, got, tt.valid)
		}
	}
}

func TestImageQualityValidation(t *testing.T) {
	tests := []struct {
		quality ImageQuality
		valid   bool
	}{
		{ImageQualityStandard, true},
		{ImageQualityHD, true},
		{ImageQuality("auto"), false},
	}

	for _, tt := range tests {
		if got := tt.quality.IsValid(); got != tt.valid {
			t.Errorf("ImageQuality(%q).IsValid() = %v, want %v", tt.quality, got, tt.valid)
		}
	}
}

func TestImageDataGetBytes(t *testing.T) {
	data, err := ImageData{B64JSON: "aGVsbG8="}.GetBytes()
	if err != nil {
		t.Fatalf("GetBytes() error = %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("GetBytes() = %q, want hello", data)
	}

	data, err = ImageData{URL: "https://example.com/a.png"}.GetBytes()
	if err != nil || data != nil {
		t.Errorf("GetBytes() for URL result = %v, %v; want nil, nil", data, err)
	}

	if _, err := (ImageData{B64JSON: "%%%"}).GetBytes(); err == nil {
		t.Error("GetBytes() should fail on invalid base64")
	}
}
