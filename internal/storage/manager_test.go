package storage

import (
	"os"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *LocalStore {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestLocalStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)

	info, err := store.Save("scan.log", strings.NewReader("line one\nline two\n"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if info.ID == "" {
		t.Error("Expected a generated file ID")
	}
	if info.Name != "scan.log" {
		t.Errorf("Expected name scan.log, got %s", info.Name)
	}
	if info.Size != 18 {
		t.Errorf("Expected size 18, got %d", info.Size)
	}
	if info.Status != "uploaded" {
		t.Errorf("Expected status uploaded, got %s", info.Status)
	}

	got, err := store.Get(info.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "scan.log" {
		t.Errorf("Get returned wrong file: %+v", got)
	}

	path, err := store.GetFilePath(info.ID)
	if err != nil {
		t.Fatalf("GetFilePath failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read stored file: %v", err)
	}
	if string(data) != "line one\nline two\n" {
		t.Errorf("Stored content mismatch: %q", data)
	}
}

func TestLocalStore_GetUnknown(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Get("missing"); err == nil {
		t.Error("Expected error for unknown file")
	}
	if _, err := store.GetFilePath("missing"); err == nil {
		t.Error("Expected error for unknown file path")
	}
}

func TestLocalStore_List(t *testing.T) {
	store := newTestStore(t)

	for i, name := range []string{"a.log", "b.log", "c.log"} {
		info, err := store.SaveBytes(name, []byte("x"))
		if err != nil {
			t.Fatalf("SaveBytes failed: %v", err)
		}
		// Force distinct upload timestamps for a stable sort.
		info.UploadedAt = time.Now().Add(time.Duration(i) * time.Second)
	}

	list, err := store.List(2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 files, got %d", len(list))
	}
	if list[0].Name != "c.log" || list[1].Name != "b.log" {
		t.Errorf("Expected newest first, got %s, %s", list[0].Name, list[1].Name)
	}
}

func TestLocalStore_Delete(t *testing.T) {
	store := newTestStore(t)

	info, err := store.SaveBytes("scan.log", []byte("data"))
	if err != nil {
		t.Fatalf("SaveBytes failed: %v", err)
	}
	path, _ := store.GetFilePath(info.ID)

	if err := store.Delete(info.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(info.ID); err == nil {
		t.Error("Expected file to be gone from the index")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected file to be gone from disk")
	}
	if err := store.Delete(info.ID); err == nil {
		t.Error("Expected error deleting twice")
	}
}

func TestLocalStore_RenameAndStatus(t *testing.T) {
	store := newTestStore(t)

	info, err := store.SaveBytes("old.log", []byte("data"))
	if err != nil {
		t.Fatalf("SaveBytes failed: %v", err)
	}

	renamed, err := store.Rename(info.ID, "new.log")
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if renamed.Name != "new.log" {
		t.Errorf("Expected new.log, got %s", renamed.Name)
	}

	if err := store.SetStatus(info.ID, "parsing"); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	got, _ := store.Get(info.ID)
	if got.Status != "parsing" {
		t.Errorf("Expected parsing status, got %s", got.Status)
	}

	if _, err := store.Rename("missing", "x"); err == nil {
		t.Error("Expected error renaming unknown file")
	}
	if err := store.SetStatus("missing", "x"); err == nil {
		t.Error("Expected error setting status on unknown file")
	}
}

func TestLocalStore_ChunkedUpload(t *testing.T) {
	store := newTestStore(t)

	chunks := []string{"first ", "second ", "third"}
	for i, chunk := range chunks {
		if err := store.SaveChunkBytes("upload-1", i, []byte(chunk)); err != nil {
			t.Fatalf("SaveChunkBytes failed: %v", err)
		}
	}

	info, err := store.CompleteChunkedUpload("upload-1", "big.log", len(chunks))
	if err != nil {
		t.Fatalf("CompleteChunkedUpload failed: %v", err)
	}
	if info.Size != int64(len("first second third")) {
		t.Errorf("Expected assembled size %d, got %d", len("first second third"), info.Size)
	}

	path, err := store.GetFilePath(info.ID)
	if err != nil {
		t.Fatalf("GetFilePath failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read assembled file: %v", err)
	}
	if string(data) != "first second third" {
		t.Errorf("Assembled content mismatch: %q", data)
	}
}

func TestLocalStore_CompleteWithMissingChunk(t *testing.T) {
	store := newTestStore(t)

	if err := store.SaveChunkBytes("upload-2", 0, []byte("only chunk")); err != nil {
		t.Fatalf("SaveChunkBytes failed: %v", err)
	}

	if _, err := store.CompleteChunkedUpload("upload-2", "partial.log", 2); err == nil {
		t.Error("Expected error when a chunk is missing")
	}
}
