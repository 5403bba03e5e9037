package storage

import (
	"errors"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
)

func TestUploadKey(t *testing.T) {
	key := UploadKey("user-7", "My Resume.PDF")

	assert.True(t, strings.HasPrefix(key, "resume-uploads/user-7/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))
	assert.NotEqual(t, key, UploadKey("user-7", "My Resume.PDF"))
}

func TestIsNoSuchKey(t *testing.T) {
	assert.False(t, IsNoSuchKey(nil))
	assert.True(t, IsNoSuchKey(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, IsNoSuchKey(errors.New("The specified key does not exist.")))
	assert.False(t, IsNoSuchKey(errors.New("access denied")))
}

func TestNewScanner_EmptyAddrSkipsScan(t *testing.T) {
	s := NewScanner("")
	assert.IsType(t, NopScanner{}, s)
	assert.NoError(t, s.Scan([]byte("anything")))
}
