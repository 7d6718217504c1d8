package storage

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxMemoryObject caps a single upload to the in-memory store
const maxMemoryObject = 32 << 20

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStorage keeps blobs in process memory and serves them from the
// application itself under /storage/:key. Meant for development and tests.
type MemoryStorage struct {
	baseURL      string
	uploadExpiry time.Duration

	mu      sync.RWMutex
	pending map[string]time.Time // upload slots not yet used, by expiry
	objects map[string]memoryObject
}

// NewMemoryStorage creates an in-memory store whose URLs are rooted at
// baseURL (e.g. http://localhost:8080).
func NewMemoryStorage(baseURL string, uploadExpiry time.Duration) *MemoryStorage {
	if uploadExpiry <= 0 {
		uploadExpiry = 15 * time.Minute
	}
	return &MemoryStorage{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		uploadExpiry: uploadExpiry,
		pending:      make(map[string]time.Time),
		objects:      make(map[string]memoryObject),
	}
}

func (m *MemoryStorage) objectURL(key string) string {
	return m.baseURL + "/storage/" + key
}

// NewUpload reserves a single-use upload slot under a fresh key
func (m *MemoryStorage) NewUpload(ctx context.Context) (Upload, error) {
	if err := ctx.Err(); err != nil {
		return Upload{}, err
	}

	key := uuid.NewString()
	expiresAt := time.Now().Add(m.uploadExpiry)

	m.mu.Lock()
	now := time.Now()
	for k, exp := range m.pending {
		if now.After(exp) {
			delete(m.pending, k)
		}
	}
	m.pending[key] = expiresAt
	m.mu.Unlock()

	return Upload{
		URL:       m.objectURL(key),
		Method:    http.MethodPut,
		StorageID: key,
		ExpiresAt: expiresAt,
	}, nil
}

// URL returns the download URL for key, or nil when nothing was uploaded
func (m *MemoryStorage) URL(ctx context.Context, key string) (*string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	_, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	url := m.objectURL(key)
	return &url, nil
}

// Delete removes the blob stored under key
func (m *MemoryStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.objects, key)
	delete(m.pending, key)
	m.mu.Unlock()
	return nil
}

// Put consumes the upload slot for key and stores data under it. It reports
// false when the slot is unknown, expired or already used.
func (m *MemoryStorage) Put(key string, data []byte, contentType string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	expiresAt, ok := m.pending[key]
	if !ok {
		return false
	}
	delete(m.pending, key)
	if time.Now().After(expiresAt) {
		return false
	}

	m.objects[key] = memoryObject{data: data, contentType: contentType}
	return true
}

// handleUpload accepts the bytes for a reserved upload slot
func (m *MemoryStorage) handleUpload(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxMemoryObject+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}
	if len(data) > maxMemoryObject {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Upload too large"})
		return
	}

	if !m.Put(c.Param("key"), data, c.ContentType()) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Upload URL is invalid or expired"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"storage_id": c.Param("key")})
}

// handleDownload serves a stored blob
func (m *MemoryStorage) handleDownload(c *gin.Context) {
	m.mu.RLock()
	obj, ok := m.objects[c.Param("key")]
	m.mu.RUnlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Object not found"})
		return
	}

	contentType := obj.contentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, obj.data)
}

// RegisterRoutes registers the upload and download routes
func (m *MemoryStorage) RegisterRoutes(r gin.IRoutes) {
	r.PUT("/storage/:key", m.handleUpload)
	r.GET("/storage/:key", m.handleDownload)
}
