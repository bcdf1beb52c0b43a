// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/danielhkuo/training-catalogue/db"
	"github.com/danielhkuo/training-catalogue/models"
	"github.com/danielhkuo/training-catalogue/taxonomy"
	"github.com/danielhkuo/training-catalogue/testutil"
)

const (
	salesVOD = "Sales/Field/01_Onboarding/04_Video on Demand"
	opsJobs  = "Ops/Core/02_Upskilling/05_Job Aids"
)

func seedCatalogue(t *testing.T, store *db.Store) (intro, link, guide string) {
	t.Helper()
	intro = testutil.SeedContainer(t, store, salesVOD+"/intro.mp4", taxonomy.TypeFile)
	link = testutil.SeedContainer(t, store, taxonomy.LinkRelativePath(salesVOD, "https://lms.example.com"), taxonomy.TypeLink)
	guide = testutil.SeedContainer(t, store, opsJobs+"/guide.pdf", taxonomy.TypeFile)
	return intro, link, guide
}

func withKey(req *http.Request, key string) *http.Request {
	req.SetPathValue("key", key)
	return req
}

func TestListContainers(t *testing.T) {
	store := testutil.SetupTestStore(t)
	handler := NewContainerHandler(store)
	seedCatalogue(t, store)

	testCases := []struct {
		name       string
		query      string
		wantStatus int
		wantCount  int
	}{
		{"all", "", http.StatusOK, 3},
		{"department", "?department=Sales", http.StatusOK, 2},
		{"training type", "?training_type=job_aids", http.StatusOK, 1},
		{"untagged", "?sales_stage=untagged", http.StatusOK, 3},
		{"stage with no rows", "?sales_stage=stage_4_make_sale", http.StatusOK, 0},
		{"unknown stage", "?sales_stage=stage_9", http.StatusBadRequest, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.MakeRequest("GET", "/containers"+tc.query, nil, nil)
			w := httptest.NewRecorder()

			handler.ListContainers(w, req)

			testutil.AssertStatus(t, w, tc.wantStatus)
			if tc.wantStatus != http.StatusOK {
				return
			}
			var resp models.ContainerListResponse
			testutil.AssertJSON(t, w, &resp)
			if len(resp.Containers) != tc.wantCount {
				t.Errorf("Expected %d containers, got %d", tc.wantCount, len(resp.Containers))
			}
		})
	}

	t.Run("totals", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/containers", nil, nil)
		w := httptest.NewRecorder()

		handler.ListContainers(w, req)

		var resp models.ContainerListResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.TotalResources != 3 || resp.TotalFiles != 3 {
			t.Errorf("Expected totals 3/3, got %d/%d", resp.TotalResources, resp.TotalFiles)
		}
	})

	t.Run("empty list is an array", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/containers?department=Nobody", nil, nil)
		w := httptest.NewRecorder()

		handler.ListContainers(w, req)

		var raw map[string]any
		testutil.AssertJSON(t, w, &raw)
		if _, ok := raw["containers"].([]any); !ok {
			t.Errorf("Expected containers to be an array, got %T", raw["containers"])
		}
	})
}

func TestGetContainer(t *testing.T) {
	store := testutil.SetupTestStore(t)
	handler := NewContainerHandler(store)
	intro, _, _ := seedCatalogue(t, store)

	t.Run("found", func(t *testing.T) {
		req := withKey(testutil.MakeRequest("GET", "/containers/"+intro, nil, nil), intro)
		w := httptest.NewRecorder()

		handler.GetContainer(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.ContainerDetailResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.ContainerKey != intro || resp.RelativePath != salesVOD+"/intro.mp4" {
			t.Errorf("Unexpected container %+v", resp.Container)
		}
		if resp.FolderContentsCount != 0 {
			t.Errorf("Expected no folder contents count, got %d", resp.FolderContentsCount)
		}
	})

	t.Run("not found", func(t *testing.T) {
		req := withKey(testutil.MakeRequest("GET", "/containers/missing", nil, nil), "missing")
		w := httptest.NewRecorder()

		handler.GetContainer(w, req)

		testutil.AssertStatus(t, w, http.StatusNotFound)
	})
}

func TestUpdateScrub(t *testing.T) {
	store := testutil.SetupTestStore(t)
	handler := NewContainerHandler(store)
	intro, link, guide := seedCatalogue(t, store)

	testCases := []struct {
		name       string
		key        string
		body       interface{}
		wantStatus int
	}{
		{
			name:       "valid decision",
			key:        intro,
			body:       models.ScrubRequest{Decision: "Modify", Owner: "alice", Reasons: []string{"outdated", "branding"}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "owner optional",
			key:        link,
			body:       map[string]string{"decision": "Include"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing decision",
			key:        intro,
			body:       map[string]string{"owner": "alice"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad decision",
			key:        intro,
			body:       map[string]string{"decision": "Keep", "owner": "alice"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "non-canonical audience",
			key:        intro,
			body:       map[string]string{"decision": "Include", "owner": "alice", "audience": "Martians"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "audience is case sensitive",
			key:        intro,
			body:       map[string]string{"decision": "Include", "owner": "alice", "audience": "operations"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "canonical audience",
			key:        guide,
			body:       map[string]string{"decision": "Include", "audience": "Partner Management"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown container",
			key:        "missing",
			body:       models.ScrubRequest{Decision: "Include", Owner: "alice"},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := withKey(testutil.MakeRequest("PUT", "/containers/"+tc.key+"/scrub", tc.body, nil), tc.key)
			w := httptest.NewRecorder()

			handler.UpdateScrub(w, req)

			testutil.AssertStatus(t, w, tc.wantStatus)
		})
	}

	c, err := store.GetContainer(context.Background(), intro)
	if err != nil {
		t.Fatal(err)
	}
	if c.ScrubStatus != "Modify" || c.ScrubOwner == nil || *c.ScrubOwner != "alice" {
		t.Errorf("Scrub not stored: status %q owner %v", c.ScrubStatus, c.ScrubOwner)
	}
	if c.ScrubReasons == nil || *c.ScrubReasons != `["branding","outdated"]` {
		t.Errorf("Expected sorted reasons, got %v", c.ScrubReasons)
	}
	if c.Audience != nil {
		t.Errorf("Rejected audience was stored: %v", *c.Audience)
	}

	c, _ = store.GetContainer(context.Background(), link)
	if c.ScrubStatus != "Include" || c.ScrubOwner != nil {
		t.Errorf("Ownerless decision: status %q owner %v", c.ScrubStatus, c.ScrubOwner)
	}

	c, _ = store.GetContainer(context.Background(), guide)
	if diff := cmp.Diff(strPtr("Partner Management"), c.Audience); diff != "" {
		t.Errorf("Audience mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateInvest(t *testing.T) {
	store := testutil.SetupTestStore(t)
	handler := NewContainerHandler(store)
	intro, _, _ := seedCatalogue(t, store)

	effort := "M"
	body := models.InvestRequest{Decision: "build", Owner: "bob", Effort: &effort}
	req := withKey(testutil.MakeRequest("PUT", "/containers/"+intro+"/invest", body, nil), intro)
	w := httptest.NewRecorder()

	handler.UpdateInvest(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	var c models.Container
	testutil.AssertJSON(t, w, &c)
	if c.InvestDecision == nil || *c.InvestDecision != "build" {
		t.Errorf("Expected invest decision 'build', got %v", c.InvestDecision)
	}
	if c.InvestEffort == nil || *c.InvestEffort != "M" {
		t.Errorf("Expected effort 'M', got %v", c.InvestEffort)
	}
}

func TestUpdateSalesStage(t *testing.T) {
	store := testutil.SetupTestStore(t)
	handler := NewContainerHandler(store)
	intro, _, _ := seedCatalogue(t, store)

	testCases := []struct {
		name       string
		body       string
		wantStatus int
		wantStage  *string
	}{
		{"set", `{"stage":"stage_3_prep"}`, http.StatusOK, strPtr("stage_3_prep")},
		{"unknown", `{"stage":"stage_99"}`, http.StatusBadRequest, strPtr("stage_3_prep")},
		{"clear", `{"stage":null}`, http.StatusOK, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := withKey(httptest.NewRequest("PUT", "/containers/"+intro+"/sales-stage", strings.NewReader(tc.body)), intro)
			w := httptest.NewRecorder()

			handler.UpdateSalesStage(w, req)

			testutil.AssertStatus(t, w, tc.wantStatus)
			c, err := store.GetContainer(context.Background(), intro)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.wantStage, c.SalesStage); diff != "" {
				t.Errorf("Sales stage mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUpdateAudienceAndScrubBatch(t *testing.T) {
	store := testutil.SetupTestStore(t)
	handler := NewContainerHandler(store)
	intro, link, guide := seedCatalogue(t, store)

	t.Run("audience", func(t *testing.T) {
		body := models.AudienceBulkRequest{ContainerKeys: []string{intro, link, "missing"}, Audience: "Operations"}
		req := testutil.MakeRequest("POST", "/containers/audience", body, nil)
		w := httptest.NewRecorder()

		handler.UpdateAudience(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.UpdatedResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Updated != 2 {
			t.Errorf("Expected 2 updated, got %d", resp.Updated)
		}
	})

	t.Run("non-canonical audience", func(t *testing.T) {
		body := models.AudienceBulkRequest{ContainerKeys: []string{intro}, Audience: "Martians"}
		req := testutil.MakeRequest("POST", "/containers/audience", body, nil)
		w := httptest.NewRecorder()

		handler.UpdateAudience(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)
		c, _ := store.GetContainer(context.Background(), intro)
		if diff := cmp.Diff(strPtr("Operations"), c.Audience); diff != "" {
			t.Errorf("Audience mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty audience unassigns", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/containers/audience", map[string]any{"container_keys": []string{intro}, "audience": ""}, nil)
		w := httptest.NewRecorder()

		handler.UpdateAudience(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.UpdatedResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Updated != 1 {
			t.Errorf("Expected 1 updated, got %d", resp.Updated)
		}
		c, _ := store.GetContainer(context.Background(), intro)
		if c.Audience != nil {
			t.Errorf("Expected audience cleared, got %q", *c.Audience)
		}
	})

	t.Run("scrub batch", func(t *testing.T) {
		body := models.ScrubBatchRequest{Updates: map[string]map[string]string{
			guide: {"scrub_status": "Sunset", "scrub_owner": "carol", "is_archived": "1"},
			link:  {"scrub_notes": "check link"},
		}}
		req := testutil.MakeRequest("POST", "/containers/scrub-batch", body, nil)
		w := httptest.NewRecorder()

		handler.UpdateScrubBatch(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.UpdatedResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Updated != 2 {
			t.Errorf("Expected 2 updated, got %d", resp.Updated)
		}

		c, _ := store.GetContainer(context.Background(), guide)
		if c.ScrubStatus != "Sunset" || c.IsArchived {
			t.Errorf("Unexpected guide state: status %q archived %v", c.ScrubStatus, c.IsArchived)
		}
	})

	t.Run("scrub batch reasons stored sorted", func(t *testing.T) {
		body := models.ScrubBatchRequest{Updates: map[string]map[string]string{
			guide: {"scrub_reasons": `["outdated","incomplete"]`, "audience": "FI"},
		}}
		req := testutil.MakeRequest("POST", "/containers/scrub-batch", body, nil)
		w := httptest.NewRecorder()

		handler.UpdateScrubBatch(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
		c, _ := store.GetContainer(context.Background(), guide)
		if diff := cmp.Diff(strPtr(`["incomplete","outdated"]`), c.ScrubReasons); diff != "" {
			t.Errorf("Reasons mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(strPtr("FI"), c.Audience); diff != "" {
			t.Errorf("Audience mismatch (-want +got):\n%s", diff)
		}
	})

	rejected := []struct {
		name   string
		fields map[string]string
	}{
		{"scrub batch bad status", map[string]string{"scrub_status": "PASS"}},
		{"scrub batch non-canonical audience", map[string]string{"audience": "Martians"}},
		{"scrub batch reasons not json", map[string]string{"audience": "POS", "scrub_reasons": "not json"}},
	}
	for _, tc := range rejected {
		t.Run(tc.name, func(t *testing.T) {
			body := models.ScrubBatchRequest{Updates: map[string]map[string]string{guide: tc.fields}}
			req := testutil.MakeRequest("POST", "/containers/scrub-batch", body, nil)
			w := httptest.NewRecorder()

			handler.UpdateScrubBatch(w, req)

			testutil.AssertStatus(t, w, http.StatusBadRequest)
			c, _ := store.GetContainer(context.Background(), guide)
			if c.ScrubStatus != "Sunset" || c.Audience == nil || *c.Audience != "FI" {
				t.Errorf("Rejected batch changed guide: status %q audience %v", c.ScrubStatus, c.Audience)
			}
		})
	}
}

func TestReferenceLists(t *testing.T) {
	store := testutil.SetupTestStore(t)
	handler := NewContainerHandler(store)
	seedCatalogue(t, store)

	t.Run("departments", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ListDepartments(w, testutil.MakeRequest("GET", "/departments", nil, nil))

		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.DepartmentsResponse
		testutil.AssertJSON(t, w, &resp)
		if diff := cmp.Diff([]string{"Ops", "Sales"}, resp.Departments); diff != "" {
			t.Errorf("Departments mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("all departments", func(t *testing.T) {
		if err := store.UpsertDepartment(context.Background(), store.DB(), "Legacy", db.FormatTime(time.Now())); err != nil {
			t.Fatal(err)
		}

		w := httptest.NewRecorder()
		handler.ListDepartments(w, testutil.MakeRequest("GET", "/departments?all=1", nil, nil))

		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.DepartmentsResponse
		testutil.AssertJSON(t, w, &resp)
		if diff := cmp.Diff([]string{"Legacy"}, resp.Departments); diff != "" {
			t.Errorf("Departments mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("training types for department", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ListTrainingTypes(w, testutil.MakeRequest("GET", "/training-types?department=Ops", nil, nil))

		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.TrainingTypesResponse
		testutil.AssertJSON(t, w, &resp)
		want := []models.TrainingType{{Key: "job_aids", Label: "Job Aids"}}
		if diff := cmp.Diff(want, resp.TrainingTypes); diff != "" {
			t.Errorf("Training types mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("sales stages", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ListSalesStages(w, testutil.MakeRequest("GET", "/sales-stages", nil, nil))

		var resp models.SalesStagesResponse
		testutil.AssertJSON(t, w, &resp)
		if len(resp.Stages) != 6 || resp.Stages[0].Key != "stage_1_identify" {
			t.Errorf("Unexpected stages %+v", resp.Stages)
		}
	})
}

func strPtr(s string) *string { return &s }
