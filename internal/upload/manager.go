// Package upload assembles chunked scan log uploads in the background.
package upload

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/snaffler-consolidator/backend/internal/models"
)

// Status represents the upload processing status.
type Status string

const (
	StatusAssembling    Status = "assembling"
	StatusDecompressing Status = "decompressing"
	StatusComplete      Status = "complete"
	StatusError         Status = "error"
)

// Job represents an async upload processing job. Large scan logs arrive as
// gzip-compressed chunks; the job assembles and inflates them before the
// file becomes visible to the parse endpoints.
type Job struct {
	ID           string           `json:"id"`
	UploadID     string           `json:"uploadId"`
	FileName     string           `json:"fileName"`
	TotalChunks  int              `json:"totalChunks"`
	OriginalSize int64            `json:"originalSize"`
	Encoding     string           `json:"encoding"` // "" or "gzip"
	Status       Status           `json:"status"`
	Progress     float64          `json:"progress"`
	FileInfo     *models.FileInfo `json:"fileInfo,omitempty"`
	Error        string           `json:"error,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	CompletedAt  *time.Time       `json:"completedAt,omitempty"`
}

// Store defines the interface needed from the storage layer.
type Store interface {
	CompleteChunkedUpload(uploadID string, name string, totalChunks int) (*models.FileInfo, error)
	GetFilePath(id string) (string, error)
	RegisterFile(info *models.FileInfo)
}

// Manager handles async upload processing.
type Manager struct {
	jobs  map[string]*Job
	mu    sync.RWMutex
	store Store
}

// NewManager creates a new upload processing manager.
func NewManager(store Store) *Manager {
	return &Manager{
		jobs:  make(map[string]*Job),
		store: store,
	}
}

// StartJob begins async processing of a completed chunked upload.
func (m *Manager) StartJob(uploadID, fileName string, totalChunks int, originalSize int64, encoding string) *Job {
	job := &Job{
		ID:           uuid.New().String(),
		UploadID:     uploadID,
		FileName:     fileName,
		TotalChunks:  totalChunks,
		OriginalSize: originalSize,
		Encoding:     encoding,
		Status:       StatusAssembling,
		CreatedAt:    time.Now(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	go m.processJob(job)

	return job
}

// GetJob retrieves a job by ID.
func (m *Manager) GetJob(id string) (*Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	return job, ok
}

// processJob handles the actual async processing.
func (m *Manager) processJob(job *Job) {
	m.updateJobStatus(job, StatusAssembling, 0)

	info, err := m.store.CompleteChunkedUpload(job.UploadID, job.FileName, job.TotalChunks)
	if err != nil {
		m.markJobError(job, fmt.Sprintf("failed to assemble chunks: %v", err))
		return
	}

	if job.Encoding == "gzip" {
		m.updateJobStatus(job, StatusDecompressing, 50)

		if err := m.decompressFile(job, info.ID); err != nil {
			// The file might still be parseable as-is, so keep it.
			fmt.Printf("[UploadJob %s] Warning: failed to decompress %s: %v\n", job.ID[:8], info.ID, err)
		} else {
			info.Size = job.OriginalSize
			m.store.RegisterFile(info)
		}
	}

	m.mu.Lock()
	job.FileInfo = info
	job.Status = StatusComplete
	job.Progress = 100
	now := time.Now()
	job.CompletedAt = &now
	m.mu.Unlock()
}

// decompressFile inflates a gzip upload in place.
func (m *Manager) decompressFile(job *Job, fileID string) error {
	path, err := m.store.GetFilePath(fileID)
	if err != nil {
		return err
	}

	compressed, err := os.Open(path)
	if err != nil {
		return err
	}
	defer compressed.Close()

	reader, err := gzip.NewReader(compressed)
	if err != nil {
		return err
	}
	defer reader.Close()

	tempPath := path + ".decompressing"
	out, err := os.Create(tempPath)
	if err != nil {
		return err
	}

	written, err := io.Copy(out, reader)
	out.Close()
	if err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("decompressing: %w", err)
	}

	if job.OriginalSize > 0 && written != job.OriginalSize {
		os.Remove(tempPath)
		return fmt.Errorf("decompressed size mismatch: got %d bytes, expected %d bytes", written, job.OriginalSize)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return err
	}

	return nil
}

// updateJobStatus updates job progress (thread-safe).
func (m *Manager) updateJobStatus(job *Job, status Status, progress float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job.Status = status
	job.Progress = progress
}

// markJobError marks job as failed (thread-safe).
func (m *Manager) markJobError(job *Job, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job.Status = StatusError
	job.Error = errMsg
	now := time.Now()
	job.CompletedAt = &now
}

// CleanupOldJobs removes jobs older than the specified duration.
func (m *Manager) CleanupOldJobs(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for id, job := range m.jobs {
		if job.Status == StatusComplete || job.Status == StatusError {
			if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
				delete(m.jobs, id)
			}
		}
	}
}
