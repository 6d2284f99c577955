package s3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestURLPrefixDerivation(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{
			name:   "aws virtual-hosted style",
			config: Config{Bucket: "media", Region: "us-west-2"},
			want:   "https://media.s3.us-west-2.amazonaws.com/",
		},
		{
			name:   "custom endpoint path style",
			config: Config{Bucket: "media", Region: "us-east-1", Endpoint: "http://localhost:9000"},
			want:   "http://localhost:9000/media/",
		},
		{
			name:   "custom endpoint trailing slash trimmed",
			config: Config{Bucket: "media", Region: "us-east-1", Endpoint: "http://localhost:9000/"},
			want:   "http://localhost:9000/media/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, urlPrefix(tt.config))
		})
	}
}

func TestURLAndResolveKey(t *testing.T) {
	backend, err := New(Config{
		Bucket:          "media",
		Region:          "us-east-1",
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	})
	require.NoError(t, err)

	url := backend.URL("user_uploads/u1/a.mp4")
	assert.Equal(t, "https://media.s3.us-east-1.amazonaws.com/user_uploads/u1/a.mp4", url)

	key, ok := backend.ResolveKey(url)
	require.True(t, ok)
	assert.Equal(t, "user_uploads/u1/a.mp4", key)

	_, ok = backend.ResolveKey("https://other-bucket.s3.us-east-1.amazonaws.com/a.mp4")
	assert.False(t, ok)

	_, ok = backend.ResolveKey("https://media.s3.us-east-1.amazonaws.com/")
	assert.False(t, ok)
}

func TestDefaultRegion(t *testing.T) {
	backend, err := New(Config{
		Bucket:          "media",
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://media.s3.us-east-1.amazonaws.com/key", backend.URL("key"))
}
