package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for i := 0; i < count; i++ {
		id, err := Generate(PrefixStack)
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
	}{
		{"user", PrefixUser},
		{"atom", PrefixAtom},
		{"triple", PrefixTriple},
		{"stack", PrefixStack},
		{"item", PrefixItem},
		{"position", PrefixPosition},
		{"notification", PrefixNotification},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := Generate(tt.prefix)
			require.NoError(t, err)

			// Should start with prefix followed by hyphen
			assert.True(t, strings.HasPrefix(id, tt.prefix+"-"))

			// NanoID default is 21 characters:
			// total is len(prefix) + 1 (hyphen) + 21
			assert.Equal(t, len(tt.prefix)+1+21, len(id), "ID: %s", id)

			// Check all characters are URL-safe (NanoID uses: A-Za-z0-9_-)
			nanoidPart := strings.TrimPrefix(id, tt.prefix+"-")
			for _, char := range nanoidPart {
				assert.True(t,
					(char >= 'A' && char <= 'Z') ||
						(char >= 'a' && char <= 'z') ||
						(char >= '0' && char <= '9') ||
						char == '_' || char == '-',
					"Character %c should be URL-safe", char)
			}
		})
	}
}

func TestMustGenerate_Format(t *testing.T) {
	id := MustGenerate(PrefixAtom)

	assert.True(t, strings.HasPrefix(id, "atom-"))
	assert.Equal(t, len("atom")+1+21, len(id))
}

func BenchmarkGenerate(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = Generate("bench")
	}
}
