// internal/services/storage_service_test.go
package services

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokemart/pokemart-backend/internal/config"
)

type memoryFile struct {
	*bytes.Reader
}

func (memoryFile) Close() error { return nil }

func newLocalStorage(t *testing.T) (*StorageService, string) {
	t.Helper()

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	service, err := NewStorageService(&config.Config{
		Server: config.ServerConfig{Host: "localhost", Port: "8080"},
	})
	require.NoError(t, err)
	return service, dir
}

func pngUpload(name string, payload []byte) (multipart.File, *multipart.FileHeader) {
	data := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}, payload...)
	header := &multipart.FileHeader{
		Filename: name,
		Size:     int64(len(data)),
		Header:   textproto.MIMEHeader{"Content-Type": []string{"image/png"}},
	}
	return memoryFile{bytes.NewReader(data)}, header
}

func TestUploadImageLocalWritesAndDeletesFile(t *testing.T) {
	service, dir := newLocalStorage(t)

	file, header := pngUpload("pikachu.png", []byte("pixels"))
	result, err := service.UploadImage(file, header, service.ProductImageOptions())
	require.NoError(t, err)

	assert.Contains(t, result.URL, "http://localhost:8080/uploads/products/")
	assert.Equal(t, "image/png", result.MimeType)

	// The returned URL is only useful if the bytes actually landed on disk.
	stored, err := os.ReadFile(filepath.Join(dir, "uploads", filepath.FromSlash(result.Key)))
	require.NoError(t, err)
	assert.Equal(t, result.Size, int64(len(stored)))
	assert.True(t, bytes.HasSuffix(stored, []byte("pixels")))

	require.NoError(t, service.DeleteImage(result.Key))
	_, err = os.Stat(filepath.Join(dir, "uploads", filepath.FromSlash(result.Key)))
	assert.True(t, os.IsNotExist(err))

	// Deleting an already-gone key stays quiet.
	assert.NoError(t, service.DeleteImage(result.Key))
}

func TestUploadImageRejectsNonImagePayload(t *testing.T) {
	service, _ := newLocalStorage(t)

	data := []byte("plain text pretending hard")
	header := &multipart.FileHeader{
		Filename: "notes.png",
		Size:     int64(len(data)),
		Header:   textproto.MIMEHeader{"Content-Type": []string{"image/png"}},
	}

	_, err := service.UploadImage(memoryFile{bytes.NewReader(data)}, header, service.ProductImageOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid image")
}

func TestUploadImageRejectsDisallowedExtension(t *testing.T) {
	service, _ := newLocalStorage(t)

	file, header := pngUpload("archive.zip", nil)
	_, err := service.UploadImage(file, header, service.ProductImageOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not allowed")
}

func TestKeyFromURLRecognizesOwnURLs(t *testing.T) {
	service, _ := newLocalStorage(t)

	file, header := pngUpload("pikachu.png", []byte("pixels"))
	result, err := service.UploadImage(file, header, service.ProductImageOptions())
	require.NoError(t, err)

	assert.Equal(t, result.Key, service.KeyFromURL(result.URL))
	assert.Empty(t, service.KeyFromURL("https://elsewhere.example/cat.png"))
}
