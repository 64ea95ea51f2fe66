// internal/services/storage_service_test.go
package services

import (
	"mime/multipart"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendigo/lendigo-backend/internal/apperrors"
	"github.com/lendigo/lendigo-backend/internal/config"
)

func TestNewStorageServiceWithoutCredentials(t *testing.T) {
	svc, err := NewStorageService(&config.Config{})
	require.NoError(t, err)
	require.NotNil(t, svc)
}

func TestUploadItemImageRejectsOversizedFile(t *testing.T) {
	svc, err := NewStorageService(&config.Config{})
	require.NoError(t, err)

	header := &multipart.FileHeader{
		Filename: "huge.jpg",
		Size:     maxImageSize + 1,
	}

	_, err = svc.UploadItemImage(header, uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestUploadItemImageRejectsDisallowedType(t *testing.T) {
	svc, err := NewStorageService(&config.Config{})
	require.NoError(t, err)

	for _, name := range []string{"payload.exe", "archive.zip", "noextension"} {
		header := &multipart.FileHeader{Filename: name, Size: 128}

		_, err := svc.UploadItemImage(header, uuid.New())
		require.Error(t, err, "filename %s", name)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err), "filename %s", name)
	}
}
