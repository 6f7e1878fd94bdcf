package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/llumina/backend/internal/library"
	"github.com/llumina/backend/internal/models"
	"github.com/llumina/backend/internal/storage"
	"github.com/llumina/backend/internal/videos"
)

type libraryStub struct {
	record    models.VideoRecord
	added     bool
	addErr    error
	addedURL  string
	status    models.Status
	statusErr error
	reorderFn func(from, to int, filter library.Filter) error
	view      []models.VideoRecord
	viewed    library.Filter
	stats     []models.CategoryCount
	colls     []models.Collection
	summary   string
	sumErr    error
	snapshot  models.Snapshot
	exported  []byte
	exportErr error
	imported  models.Snapshot
	importErr error
	busy      bool
	removed   string
	assigned  [2]string
	assignErr error
	active    string
}

func (s *libraryStub) AddVideo(ctx context.Context, url string) (models.VideoRecord, bool, error) {
	s.addedURL = url
	return s.record, s.added, s.addErr
}

func (s *libraryStub) RemoveVideo(ctx context.Context, id string) error {
	s.removed = id
	return nil
}

func (s *libraryStub) ToggleWatched(ctx context.Context, id string) (models.Status, error) {
	return s.status, s.statusErr
}

func (s *libraryStub) MarkWatching(ctx context.Context, id string) (models.Status, error) {
	return s.status, s.statusErr
}

func (s *libraryStub) FinishPlayback(ctx context.Context, id string) (models.Status, error) {
	return s.status, s.statusErr
}

func (s *libraryStub) Reorder(ctx context.Context, from, to int, filter library.Filter) error {
	if s.reorderFn != nil {
		return s.reorderFn(from, to, filter)
	}
	return nil
}

func (s *libraryStub) FilteredView(filter library.Filter) []models.VideoRecord {
	s.viewed = filter
	return s.view
}

func (s *libraryStub) CategoryStatistics() []models.CategoryCount { return s.stats }

func (s *libraryStub) AssignCollection(ctx context.Context, videoID, collectionID string) error {
	s.assigned = [2]string{videoID, collectionID}
	return s.assignErr
}

func (s *libraryStub) Collections() []models.Collection { return s.colls }

func (s *libraryStub) SaveCollections(ctx context.Context, collections []models.Collection) error {
	s.colls = collections
	return nil
}

func (s *libraryStub) Summarize(ctx context.Context, id string) (string, error) {
	return s.summary, s.sumErr
}

func (s *libraryStub) Snapshot() models.Snapshot { return s.snapshot }

func (s *libraryStub) Export() ([]byte, error) { return s.exported, s.exportErr }

func (s *libraryStub) Import(ctx context.Context, data []byte) (models.Snapshot, error) {
	return s.imported, s.importErr
}

func (s *libraryStub) SetActiveCollection(id string) { s.active = id }

func (s *libraryStub) Busy() bool { return s.busy }

type limiterStub struct {
	allow bool
	keys  []string
}

func (l *limiterStub) Allow(key string) bool {
	l.keys = append(l.keys, key)
	return l.allow
}

func newMux(deps Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	RegisterRoutes(mux, deps)
	return mux
}

func TestLibraryHandlerAddCreated(t *testing.T) {
	stub := &libraryStub{
		record: models.VideoRecord{ID: "v1", YouTubeID: "abc123XYZ"},
		added:  true,
	}
	mux := newMux(Dependencies{Library: stub})

	body := bytes.NewBufferString(`{"url": "https://youtu.be/abc123XYZ"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", body)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusCreated)
	}
	if stub.addedURL != "https://youtu.be/abc123XYZ" {
		t.Fatalf("unexpected url passed through: %q", stub.addedURL)
	}

	var resp struct {
		Video models.VideoRecord `json:"video"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Video.ID != "v1" {
		t.Fatalf("unexpected video in response: %+v", resp.Video)
	}
}

func TestLibraryHandlerAddDuplicate(t *testing.T) {
	stub := &libraryStub{record: models.VideoRecord{ID: "v1"}, added: false}
	mux := newMux(Dependencies{Library: stub})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", bytes.NewBufferString(`{"url": "https://youtu.be/abc123XYZ"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Duplicate bool `json:"duplicate"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Duplicate {
		t.Fatal("expected duplicate flag in response")
	}
}

func TestLibraryHandlerAddErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"invalid body", "not json", nil, http.StatusBadRequest},
		{"blank url", `{"url": "  "}`, nil, http.StatusBadRequest},
		{"invalid source", `{"url": "https://example.com"}`, videos.ErrInvalidSource, http.StatusBadRequest},
		{"provider down", `{"url": "https://youtu.be/x1"}`, videos.ErrProviderUnavailable, http.StatusBadGateway},
		{"malformed answer", `{"url": "https://youtu.be/x1"}`, videos.ErrMalformedResponse, http.StatusBadGateway},
		{"store failure", `{"url": "https://youtu.be/x1"}`, errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mux := newMux(Dependencies{Library: &libraryStub{addErr: tc.err}})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", bytes.NewBufferString(tc.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("unexpected status: got %d want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestLibraryHandlerAddRateLimited(t *testing.T) {
	limiter := &limiterStub{allow: false}
	mux := newMux(Dependencies{Library: &libraryStub{}, AddLimiter: limiter})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", bytes.NewBufferString(`{"url": "https://youtu.be/x1"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusTooManyRequests)
	}
	if len(limiter.keys) != 1 {
		t.Fatalf("expected limiter consultation, got %v", limiter.keys)
	}
}

func TestLibraryHandlerListPassesFilter(t *testing.T) {
	stub := &libraryStub{
		view: []models.VideoRecord{{ID: "v1"}},
		busy: true,
	}
	mux := newMux(Dependencies{Library: stub})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos?q=go&status=watched&collection=research", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	want := library.Filter{Query: "go", Status: "watched", CollectionID: "research"}
	if stub.viewed != want {
		t.Fatalf("unexpected filter: %+v", stub.viewed)
	}

	var resp struct {
		Videos []models.VideoRecord `json:"videos"`
		Busy   bool                 `json:"busy"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Videos) != 1 || !resp.Busy {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestLibraryHandlerStatusRoutes(t *testing.T) {
	for _, path := range []string{"toggle", "watching", "finished"} {
		t.Run(path, func(t *testing.T) {
			stub := &libraryStub{status: models.StatusWatched}
			mux := newMux(Dependencies{Library: stub})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/v1/"+path, nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("unexpected status: %d", rec.Code)
			}

			var resp struct {
				Status models.Status `json:"status"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Status != models.StatusWatched {
				t.Fatalf("unexpected status in body: %s", resp.Status)
			}
		})
	}
}

func TestLibraryHandlerStatusNotFound(t *testing.T) {
	mux := newMux(Dependencies{Library: &libraryStub{statusErr: library.ErrVideoNotFound}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/missing/toggle", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusNotFound)
	}
}

func TestLibraryHandlerRemove(t *testing.T) {
	stub := &libraryStub{}
	mux := newMux(Dependencies{Library: stub})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/videos/v1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if stub.removed != "v1" {
		t.Fatalf("unexpected id removed: %q", stub.removed)
	}
}

func TestLibraryHandlerReorderFiltered(t *testing.T) {
	stub := &libraryStub{reorderFn: func(from, to int, filter library.Filter) error {
		if !filter.IsIdentity() {
			return library.ErrFilteredReorder
		}
		return nil
	}}
	mux := newMux(Dependencies{Library: stub})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/reorder?q=go", bytes.NewBufferString(`{"from": 0, "to": 2}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusConflict)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/videos/reorder", bytes.NewBufferString(`{"from": 0, "to": 2}`))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status without filter: %d", rec.Code)
	}
}

func TestLibraryHandlerAssignCollection(t *testing.T) {
	stub := &libraryStub{}
	mux := newMux(Dependencies{Library: stub})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/v1/collection", bytes.NewBufferString(`{"collectionId": "research"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if stub.assigned != [2]string{"v1", "research"} {
		t.Fatalf("unexpected assignment: %v", stub.assigned)
	}
}

func TestLibraryHandlerSaveCollections(t *testing.T) {
	stub := &libraryStub{}
	mux := newMux(Dependencies{Library: stub})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/collections", bytes.NewBufferString(`{"collections": [{"id": "default", "name": "General", "icon": "brain"}]}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if len(stub.colls) != 1 || stub.colls[0].ID != "default" {
		t.Fatalf("unexpected collections saved: %+v", stub.colls)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/v1/collections", bytes.NewBufferString(`{"collections": []}`))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected an empty set to be rejected, got %d", rec.Code)
	}
}

func TestLibraryHandlerImport(t *testing.T) {
	t.Run("malformed", func(t *testing.T) {
		mux := newMux(Dependencies{Library: &libraryStub{importErr: storage.ErrMalformedImport}})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/import", bytes.NewBufferString("nonsense"))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("success", func(t *testing.T) {
		stub := &libraryStub{imported: models.Snapshot{
			Videos:      []models.VideoRecord{{ID: "v1"}},
			Collections: models.DefaultCollections(),
		}}
		mux := newMux(Dependencies{Library: stub})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/import", bytes.NewBufferString(`{"videos": []}`))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("unexpected status: %d", rec.Code)
		}

		var resp struct {
			Videos      int `json:"videos"`
			Collections int `json:"collections"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Videos != 1 || resp.Collections != len(models.DefaultCollections()) {
			t.Fatalf("unexpected counts: %+v", resp)
		}
	})
}

func TestLibraryHandlerExport(t *testing.T) {
	stub := &libraryStub{exported: []byte(`{"version": "2.0"}`)}
	mux := newMux(Dependencies{Library: stub})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got == "" {
		t.Fatal("expected an attachment disposition header")
	}
	if rec.Body.String() != `{"version": "2.0"}` {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAccessGuardOnMutatingRoutes(t *testing.T) {
	guard := accessCheckerStub{allowed: false}
	mux := newMux(Dependencies{Library: &libraryStub{}, Guard: guard})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", bytes.NewBufferString(`{"url": "https://youtu.be/x1"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusUnauthorized)
	}

	// Read-only routes stay open.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status for read route: %d", rec.Code)
	}
}

type accessCheckerStub struct {
	allowed bool
}

func (a accessCheckerStub) Allow(r *http.Request) bool { return a.allowed }
