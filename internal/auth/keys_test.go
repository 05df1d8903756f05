package auth

import (
	"strings"
	"testing"
)

func TestHashKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "simple key", input: "test-api-key"},
		{name: "key with whitespace trimmed", input: "  test-api-key  "},
		{name: "empty string", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := HashKey(tt.input)
			if len(result) != 64 {
				t.Errorf("HashKey() returned %d chars, want 64", len(result))
			}
		})
	}

	// Whitespace is trimmed before hashing
	if HashKey("  test-api-key  ") != HashKey("test-api-key") {
		t.Error("HashKey() did not trim whitespace")
	}

	// SHA256 of the empty string
	if got := HashKey(""); got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("HashKey(\"\") = %v", got)
	}
}

func TestHashKey_Deterministic(t *testing.T) {
	key := "my-secret-key"
	if HashKey(key) != HashKey(key) {
		t.Error("HashKey is not deterministic")
	}
}

func TestGenerateKey(t *testing.T) {
	key1, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	if !strings.HasPrefix(key1, KeyPrefix) {
		t.Errorf("key %q missing prefix %q", key1, KeyPrefix)
	}
	// prefix + 32 bytes hex
	if len(key1) != len(KeyPrefix)+64 {
		t.Errorf("key length = %d, want %d", len(key1), len(KeyPrefix)+64)
	}

	key2, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	if key1 == key2 {
		t.Error("two generated keys are identical")
	}
}
