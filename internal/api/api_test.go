package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/schedulectx/internal/checksum"
	"github.com/starford/schedulectx/internal/history"
	"github.com/starford/schedulectx/internal/schedule"
	"github.com/starford/schedulectx/internal/scheduleservice"
	"github.com/starford/schedulectx/internal/testutil"
)

const fullNote = "\n\nNote: This game is on or around 2024-03-10. Check the schedule for context about rivalry games, league importance, and upcoming matchups."

// testEnv sets up a temp schedule dir, history DB, service, and router.
// A non-empty authToken enables token mode.
func testEnv(t *testing.T, authToken string) (http.Handler, string) {
	t.Helper()
	dir, store := testutil.TestDir(t)
	svc := scheduleservice.NewService(store, testutil.TestDB(t))
	return NewRouter(svc, authToken != "", authToken, nil), dir
}

func do(t *testing.T, h http.Handler, method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestGetContext_Absent(t *testing.T) {
	router, _ := testEnv(t, "")

	for _, target := range []string{"/schedule/context", "/schedule/context?game_date=2024-03-10"} {
		w := do(t, router, http.MethodGet, target, nil, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s status = %d", target, w.Code)
		}
		if w.Body.Len() != 0 {
			t.Errorf("%s body = %q, want empty", target, w.Body.String())
		}
	}
}

func TestGetContext(t *testing.T) {
	router, dir := testEnv(t, "")
	testutil.WriteSchedule(t, dir, "Game 1: Mon vs Rivals")

	w := do(t, router, http.MethodGet, "/schedule/context", nil, nil)
	if got, want := w.Body.String(), "\n\nTEAM SCHEDULE:\nGame 1: Mon vs Rivals"; got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Errorf("content-type = %q", ct)
	}

	w = do(t, router, http.MethodGet, "/schedule/context?game_date=2024-03-10", nil, nil)
	if got, want := w.Body.String(), "\n\nTEAM SCHEDULE:\nGame 1: Mon vs Rivals"+fullNote; got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestGetContext_EmptyGameDateIsSupplied(t *testing.T) {
	router, dir := testEnv(t, "")
	testutil.WriteSchedule(t, dir, "S")

	w := do(t, router, http.MethodGet, "/schedule/context?game_date=", nil, nil)
	want := "\n\nTEAM SCHEDULE:\nS\n\nNote: This game is on or around . Check the schedule for context about rivalry games, league importance, and upcoming matchups."
	if w.Body.String() != want {
		t.Errorf("body = %q, want %q", w.Body.String(), want)
	}
}

func TestGetContext_UnreadableSchedule(t *testing.T) {
	router, dir := testEnv(t, "")
	testutil.WriteSchedule(t, dir, "bad \xff")

	w := do(t, router, http.MethodGet, "/schedule/context", nil, nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestGetSchedule(t *testing.T) {
	router, dir := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/schedule", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("absent status = %d, want 404", w.Code)
	}

	testutil.WriteSchedule(t, dir, "Week 1")
	w = do(t, router, http.MethodGet, "/schedule", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var doc ScheduleDocument
	_ = json.Unmarshal(w.Body.Bytes(), &doc)
	if doc.Content != "Week 1" || doc.Path != schedule.FileName {
		t.Errorf("doc = %+v", doc)
	}
	if etag := w.Header().Get("ETag"); etag != checksum.ETag(checksum.Sum([]byte("Week 1"))) {
		t.Errorf("etag = %q", etag)
	}
}

func TestUpdateSchedule_OptimisticLocking(t *testing.T) {
	router, dir := testEnv(t, "")

	body, _ := json.Marshal(UpdateScheduleRequest{Content: "v1"})
	w := do(t, router, http.MethodPut, "/schedule", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	etag := w.Header().Get("ETag")

	body, _ = json.Marshal(UpdateScheduleRequest{Content: "v2"})
	w = do(t, router, http.MethodPut, "/schedule", body, map[string]string{"If-Match": `"stale"`})
	if w.Code != http.StatusConflict {
		t.Errorf("stale update = %d, want 409", w.Code)
	}

	w = do(t, router, http.MethodPut, "/schedule", body, map[string]string{"If-Match": etag})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}
	data, _ := os.ReadFile(filepath.Join(dir, schedule.FileName))
	if string(data) != "v2" {
		t.Errorf("file = %q", data)
	}
}

func TestUpdateSchedule_IfMatchWildcard(t *testing.T) {
	router, dir := testEnv(t, "")
	wildcard := map[string]string{"If-Match": "*"}

	body, _ := json.Marshal(UpdateScheduleRequest{Content: "v1"})
	w := do(t, router, http.MethodPut, "/schedule", body, wildcard)
	if w.Code != http.StatusConflict {
		t.Fatalf("wildcard without schedule = %d, want 409", w.Code)
	}
	if _, err := os.Stat(filepath.Join(dir, schedule.FileName)); !os.IsNotExist(err) {
		t.Fatalf("schedule written despite failed precondition: %v", err)
	}

	testutil.WriteSchedule(t, dir, "v0")
	w = do(t, router, http.MethodPut, "/schedule", body, wildcard)
	if w.Code != http.StatusOK {
		t.Fatalf("wildcard with schedule = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestUpdateSchedule_BadRequests(t *testing.T) {
	router, _ := testEnv(t, "")

	w := do(t, router, http.MethodPut, "/schedule", []byte("{not json"), nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d, want 400", w.Code)
	}

	oversize := bytes.Repeat([]byte("a"), scheduleservice.MaxScheduleBytes+1)
	body, _ := json.Marshal(UpdateScheduleRequest{Content: string(oversize)})
	w = do(t, router, http.MethodPut, "/schedule", body, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("oversize = %d, want 400", w.Code)
	}
}

func TestListRevisions(t *testing.T) {
	router, _ := testEnv(t, "")

	for _, c := range []string{"a", "b", "c"} {
		body, _ := json.Marshal(UpdateScheduleRequest{Content: c})
		if w := do(t, router, http.MethodPut, "/schedule", body, nil); w.Code != http.StatusOK {
			t.Fatalf("put %s = %d", c, w.Code)
		}
	}

	w := do(t, router, http.MethodGet, "/schedule/revisions?limit=2", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp RevisionListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 3 || len(resp.Revisions) != 2 {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Revisions[0].Checksum != checksum.Sum([]byte("c")) {
		t.Errorf("newest revision = %+v", resp.Revisions[0])
	}
}

func TestListRevisions_NoHistory(t *testing.T) {
	_, store := testutil.TestDir(t)
	var hist history.Log
	router := NewRouter(scheduleservice.NewService(store, hist), false, "", nil)

	w := do(t, router, http.MethodGet, "/schedule/revisions", nil, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestAuth(t *testing.T) {
	router, _ := testEnv(t, "secret")

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "Bearer nope", http.StatusUnauthorized},
		{"scheme", "Basic secret", http.StatusUnauthorized},
		{"valid", "Bearer secret", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			headers := map[string]string{}
			if tc.header != "" {
				headers["Authorization"] = tc.header
			}
			w := do(t, router, http.MethodGet, "/schedule/context", nil, headers)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}
