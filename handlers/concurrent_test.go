// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/training-catalogue/ingest"
	"github.com/danielhkuo/training-catalogue/models"
	"github.com/danielhkuo/training-catalogue/taxonomy"
	"github.com/danielhkuo/training-catalogue/testutil"
)

// TestConcurrentScrubDecisions verifies that simultaneous decisions on
// different containers all land without clobbering each other
func TestConcurrentScrubDecisions(t *testing.T) {
	store := testutil.SetupTestStore(t)
	handler := NewContainerHandler(store)

	numContainers := 10
	keys := make([]string, numContainers)
	for i := 0; i < numContainers; i++ {
		keys[i] = testutil.SeedContainer(t, store, fmt.Sprintf("%s/file-%02d.pdf", salesVOD, i), taxonomy.TypeFile)
	}

	decisions := []string{models.ScrubInclude, models.ScrubModify, models.ScrubSunset}

	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numContainers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			body := models.ScrubRequest{Decision: decisions[idx%3], Owner: fmt.Sprintf("owner-%d", idx)}
			req := withKey(testutil.MakeRequest("PUT", "/containers/"+keys[idx]+"/scrub", body, nil), keys[idx])
			w := httptest.NewRecorder()

			handler.UpdateScrub(w, req)

			if w.Code == http.StatusOK {
				successCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	if int(successCount.Load()) != numContainers {
		t.Errorf("Expected %d successful decisions, got %d", numContainers, successCount.Load())
	}

	for i, key := range keys {
		c, err := store.GetContainer(context.Background(), key)
		if err != nil {
			t.Fatalf("Failed to read container %d: %v", i, err)
		}
		if c.ScrubStatus != decisions[i%3] {
			t.Errorf("Container %d: expected %q, got %q", i, decisions[i%3], c.ScrubStatus)
		}
		if c.ScrubOwner == nil || *c.ScrubOwner != fmt.Sprintf("owner-%d", i) {
			t.Errorf("Container %d: wrong owner %v", i, c.ScrubOwner)
		}
	}
}

// TestConcurrentSyncTriggers verifies that overlapping sync requests either
// run or are refused with 409, never both at once and never with a 500
func TestConcurrentSyncTriggers(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 20; i++ {
		file := filepath.Join(root, "Sales", "Field", "01_Onboarding", "04_Video on Demand", fmt.Sprintf("clip-%02d.mp4", i))
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(file, []byte("video"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	store := testutil.SetupTestStore(t)
	cfg := testutil.GetTestConfig()
	cfg.CatalogueDir = root
	handler := NewSyncHandler(store, ingest.NewSyncer(store), cfg, nil)

	numRequests := 8
	var okCount, conflictCount, otherCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			w := httptest.NewRecorder()
			handler.SyncFolder(w, testutil.MakeRequest("POST", "/sync/folder", nil, nil))

			switch w.Code {
			case http.StatusOK:
				okCount.Add(1)
			case http.StatusConflict:
				conflictCount.Add(1)
			default:
				otherCount.Add(1)
			}
		}()
	}

	wg.Wait()

	if okCount.Load() < 1 {
		t.Error("Expected at least one sync to run")
	}
	if otherCount.Load() != 0 {
		t.Errorf("Expected only 200 or 409 responses, got %d others", otherCount.Load())
	}

	n, err := store.ActiveCount(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 20 {
		t.Errorf("Expected 20 active containers, got %d", n)
	}

	runs, err := store.ListSyncRuns(context.Background(), 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != int(okCount.Load()) {
		t.Errorf("Expected one run record per successful sync (%d), got %d", okCount.Load(), len(runs))
	}
}
