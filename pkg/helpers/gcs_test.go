package helpers

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvatarObjectPath(t *testing.T) {
	assert.Equal(t, "avatars/u1/1700000000.png", AvatarObjectPath("u1", "Me.PNG", 1700000000))
	assert.Equal(t, "avatars/u1/5.bin", AvatarObjectPath("u1", "noext", 5))
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://storage.googleapis.com/b/avatars/x.png", PublicURL("b", "avatars/x.png"))
}

func TestUploadWithoutClient(t *testing.T) {
	var u *GCSUploader
	_, err := u.Upload(context.Background(), "p", "image/png", strings.NewReader("x"))
	assert.Error(t, err)
}
