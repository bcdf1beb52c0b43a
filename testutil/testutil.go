// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielhkuo/training-catalogue/cliparse"
	"github.com/danielhkuo/training-catalogue/db"
	"github.com/danielhkuo/training-catalogue/taxonomy"
)

// TestAdminKey is the admin key in GetTestConfig
const TestAdminKey = "test-admin-key"

// SetupTestStore opens a fresh SQLite database in a temp dir with the full
// schema. It is closed when the test ends.
func SetupTestStore(t *testing.T) *db.Store {
	t.Helper()

	conn, err := db.Open(context.Background(), db.SQLite, filepath.Join(t.TempDir(), "catalogue.db"), time.Second)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn, db.SQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	store, err := db.NewStore(conn, db.SQLite)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:           3318,
		DatabaseURL:    "file:test.db",
		DatabaseType:   db.SQLite,
		AdminKey:       TestAdminKey,
		GraphRateLimit: 10,
	}
}

// SeedContainer upserts one active file or link row at relPath and returns
// its key. The taxonomy columns are derived from the path.
func SeedContainer(t *testing.T, store *db.Store, relPath, containerType string) string {
	t.Helper()

	p := taxonomy.ParsePath(relPath)
	row := db.ContainerRow{
		ContainerKey:      taxonomy.ContainerKey("", relPath, containerType),
		RelativePath:      relPath,
		Bucket:            p.Bucket,
		PrimaryDepartment: p.Department,
		SubDepartment:     p.SubDepartment,
		TrainingType:      p.TrainingType,
		ContainerType:     containerType,
		DisplayName:       path.Base(relPath),
		Source:            "folder",
		LastSeen:          db.FormatTime(time.Now()),
	}
	switch containerType {
	case taxonomy.TypeFile:
		row.ResourceCount = 1
	case taxonomy.TypeLink:
		row.ResourceCount = 1
		row.ValidLinkCount = 1
	}

	if _, err := store.BatchUpsert(context.Background(), store.DB(), []db.ContainerRow{row}); err != nil {
		t.Fatalf("Failed to seed container %s: %v", relPath, err)
	}
	return row.ContainerKey
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// MakeUploadRequest creates a multipart request with one file field
func MakeUploadRequest(t *testing.T, path, field, filename string, content []byte, headers map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

// AdminHeaders returns headers carrying the test admin key
func AdminHeaders() map[string]string {
	return map[string]string{"X-Admin-Key": TestAdminKey}
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
