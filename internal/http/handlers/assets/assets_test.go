package assets

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/princekumarofficial/asset-service/internal/ingest"
	assetService "github.com/princekumarofficial/asset-service/internal/services/assets"
	"github.com/princekumarofficial/asset-service/internal/services/media"
	"github.com/princekumarofficial/asset-service/internal/storage/sqlite"
	"github.com/princekumarofficial/asset-service/internal/types"
	"github.com/princekumarofficial/asset-service/internal/utils/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake-image")

type fixture struct {
	dir     string
	mux     *http.ServeMux
	service *assetService.Service
	hub     *recordingHub
}

type recordingHub struct {
	events chan *types.Event
}

func (h *recordingHub) Broadcast(event *types.Event) {
	h.events <- event
}

func newFixture(t *testing.T, maxUpload int64) *fixture {
	t.Helper()

	dir := t.TempDir()
	store, err := sqlite.NewSQLite(filepath.Join(dir, "assets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	backend, err := media.NewLocal(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	service := assetService.NewService(store, backend, nil)
	hub := &recordingHub{events: make(chan *types.Event, 64)}
	h := NewAssetHandlers(service, ingest.Driver{Uploader: service, TempDir: dir}, hub, maxUpload)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", Root())
	mux.HandleFunc("GET /api/health", Health())
	mux.HandleFunc("POST /api/upload", h.Upload())
	mux.HandleFunc("GET /api/search", h.Search())
	mux.HandleFunc("GET /api/assets/{id}", h.GetAsset())
	mux.HandleFunc("DELETE /api/assets/{id}", h.DeleteAsset())
	mux.HandleFunc("GET /api/download/{id}", h.Download())
	mux.HandleFunc("GET /api/metadata/actions", h.Actions())
	mux.HandleFunc("POST /api/bulk-upload", h.BulkUpload())

	return &fixture{dir: dir, mux: mux, service: service, hub: hub}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func multipartRequest(t *testing.T, target, filename string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.WriteField("prompt", "from form"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (f *fixture) seed(t *testing.T, filename string, meta types.Metadata) *types.Asset {
	t.Helper()

	asset, err := f.service.Create(context.Background(), pngBytes, filename, meta)
	require.NoError(t, err)
	return asset
}

func TestUploadGetDownload(t *testing.T) {
	f := newFixture(t, 0)

	rec := f.do(multipartRequest(t, "/api/upload?angle_1=above&action_1=sit&action_2=", "cat.png", pngBytes))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	uploaded := decode[types.UploadResponse](t, rec)
	require.True(t, uploaded.Success)
	require.NotNil(t, uploaded.Asset)
	assert.Equal(t, "above", types.Value(uploaded.Asset.Angle1))
	assert.Equal(t, "sit", types.Value(uploaded.Asset.Action1))
	assert.Nil(t, uploaded.Asset.Action2)
	assert.Equal(t, "from form", types.Value(uploaded.Asset.Prompt))
	assert.Equal(t, "cat.png", types.Value(uploaded.Asset.OriginalFilename))
	assert.Nil(t, uploaded.Asset.S3URL)
	assert.Equal(t, types.Value(uploaded.Asset.LocalFilePath), uploaded.S3URL)

	id := uploaded.Asset.ID
	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/assets/"+itoa(id), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decode[types.Asset](t, rec).ID)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/download/"+itoa(id), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename=cat.png`)
	assert.Equal(t, pngBytes, rec.Body.Bytes())
}

func TestUploadRejections(t *testing.T) {
	f := newFixture(t, 1024)

	rec := f.do(multipartRequest(t, "/api/upload", "", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "file is required", decode[response.Response](t, rec).Error)

	rec = f.do(multipartRequest(t, "/api/upload", "empty.png", []byte{}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(multipartRequest(t, "/api/upload", "big.png", bytes.Repeat([]byte("x"), 4096)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestSearch(t *testing.T) {
	f := newFixture(t, 0)

	f.seed(t, "a.png", types.Metadata{Action1: types.String("sit"), Prompt: types.String("a red chair")})
	f.seed(t, "b.png", types.Metadata{Action1: types.String("sit"), Prompt: types.String("blue sky")})
	f.seed(t, "c.png", types.Metadata{Action1: types.String("run")})

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/search?action_1=sit", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[types.SearchResponse](t, rec)
	assert.EqualValues(t, 2, result.Total)
	assert.Equal(t, types.DefaultSearchLimit, result.Limit)
	require.Len(t, result.Results, 2)
	assert.Less(t, result.Results[0].ID, result.Results[1].ID)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/search?prompt=chair", nil))
	result = decode[types.SearchResponse](t, rec)
	assert.EqualValues(t, 1, result.Total)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/search?limit=1&offset=1", nil))
	result = decode[types.SearchResponse](t, rec)
	assert.EqualValues(t, 3, result.Total)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "b.png", types.Value(result.Results[0].OriginalFilename))

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/search?action_1=fly", nil))
	assert.Equal(t, "[]", string(bytes.TrimSpace(jsonField(t, rec, "results"))))

	for _, bad := range []string{"limit=0", "limit=1001", "limit=ten", "offset=-1", "include_deleted=maybe"} {
		rec = f.do(httptest.NewRequest(http.MethodGet, "/api/search?"+bad, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestDeleteAndDownloadStates(t *testing.T) {
	f := newFixture(t, 0)
	asset := f.seed(t, "a.png", types.Metadata{})
	id := itoa(asset.ID)

	rec := f.do(httptest.NewRequest(http.MethodDelete, "/api/assets/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	deleted := decode[types.DeleteResponse](t, rec)
	require.NotNil(t, deleted.DeletedAsset)
	assert.NotNil(t, deleted.DeletedAsset.DeletedAt)
	assert.Equal(t, "Asset "+id+" soft deleted", deleted.Message)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/download/"+id, nil))
	assert.Equal(t, http.StatusGone, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/assets/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	gotAsset := decode[types.Asset](t, rec)
	assert.True(t, gotAsset.IsDeleted())

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/search", nil))
	assert.EqualValues(t, 0, decode[types.SearchResponse](t, rec).Total)
	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/search?include_deleted=true", nil))
	assert.EqualValues(t, 1, decode[types.SearchResponse](t, rec).Total)

	rec = f.do(httptest.NewRequest(http.MethodDelete, "/api/assets/"+id+"?hard_delete=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[types.DeleteResponse](t, rec).DeletedAsset)
	_, err := os.Stat(asset.Locator())
	assert.True(t, os.IsNotExist(err))

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/assets/"+id, nil),
		httptest.NewRequest(http.MethodGet, "/api/download/"+id, nil),
		httptest.NewRequest(http.MethodDelete, "/api/assets/"+id, nil),
	} {
		assert.Equal(t, http.StatusNotFound, f.do(req).Code, req.Method+" "+req.URL.Path)
	}

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/assets/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadMissingFile(t *testing.T) {
	f := newFixture(t, 0)
	asset := f.seed(t, "a.png", types.Metadata{})
	require.NoError(t, os.Remove(asset.Locator()))

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/download/"+itoa(asset.ID), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestActionsHealthRoot(t *testing.T) {
	f := newFixture(t, 0)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/metadata/actions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, types.ActionsResponse{Actions: []string{}, Count: 0}, decode[types.ActionsResponse](t, rec))

	f.seed(t, "a.png", types.Metadata{Action1: types.String("walk")})
	f.seed(t, "b.png", types.Metadata{Action1: types.String("sit")})
	f.seed(t, "c.png", types.Metadata{Action1: types.String("sit")})

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/metadata/actions", nil))
	assert.Equal(t, types.ActionsResponse{Actions: []string{"sit", "walk"}, Count: 2}, decode[types.ActionsResponse](t, rec))

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, HealthResponse{Status: "healthy", Service: ServiceName, Version: ServiceVersion}, decode[HealthResponse](t, rec))

	rec = f.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/docs/", rec.Header().Get("Location"))
}

func zipBytes(t *testing.T, files map[string][]byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const batchCSV = "reference_image_name,reference_image_path,angle_direction_1,action_direction_1\n" +
	"first,../resources/nsfw_data/a.png,above,sit\n" +
	"second,../resources/nsfw_data/missing.png,below,nan\n"

func TestBulkUpload(t *testing.T) {
	f := newFixture(t, 0)

	archive := zipBytes(t, map[string][]byte{
		"batch/data.csv":            []byte(batchCSV),
		"resources/nsfw_data/a.png": pngBytes,
	})
	batchID := "6f1c2a7e-8d44-4b0a-9a51-3f5b2c9d0e11"

	rec := f.do(multipartRequest(t, "/api/bulk-upload?batch_id="+batchID, "batch.zip", archive))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[BulkUploadResponse](t, rec)
	assert.Equal(t, batchID, resp.BatchID)
	assert.Equal(t, "completed", resp.Status)
	require.NotNil(t, resp.Summary)
	assert.Equal(t, 2, resp.Summary.Total)
	assert.Equal(t, 1, resp.Summary.Successful)
	assert.Equal(t, 1, resp.Summary.Failed)
	assert.Equal(t, []int{2}, resp.Summary.FailedRows())

	total, results, err := f.service.Search(context.Background(), types.SearchParams{Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, "sit", types.Value(results[0].Action1))

	var kinds []types.EventType
	for len(f.hub.events) > 0 {
		e := <-f.hub.events
		assert.Equal(t, batchID, e.BatchID)
		kinds = append(kinds, e.Type)
	}
	assert.Equal(t, []types.EventType{
		types.EventBatchStarted, types.EventRowProcessed, types.EventRowProcessed, types.EventBatchFinished,
	}, kinds)
}

func TestBulkUploadAborted(t *testing.T) {
	f := newFixture(t, 0)

	archive := zipBytes(t, map[string][]byte{"readme.txt": []byte("no csv here")})
	rec := f.do(multipartRequest(t, "/api/bulk-upload", "batch.zip", archive))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	resp := decode[BulkUploadResponse](t, rec)
	assert.Equal(t, "aborted", resp.Status)
	require.NotNil(t, resp.Summary)
	assert.True(t, resp.Summary.Aborted)
	assert.Contains(t, resp.Summary.AbortReason, "no CSV found in archive")
	assert.NotEmpty(t, resp.BatchID)

	rec = f.do(multipartRequest(t, "/api/bulk-upload?batch_id=nope", "batch.zip", archive))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBulkUploadAsync(t *testing.T) {
	f := newFixture(t, 0)

	archive := zipBytes(t, map[string][]byte{
		"data.csv":                  []byte(batchCSV),
		"resources/nsfw_data/a.png": pngBytes,
	})

	rec := f.do(multipartRequest(t, "/api/bulk-upload?async=true", "batch.zip", archive))
	require.Equal(t, http.StatusAccepted, rec.Code)
	resp := decode[BulkUploadResponse](t, rec)
	assert.Equal(t, "accepted", resp.Status)
	assert.Nil(t, resp.Summary)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case e := <-f.hub.events:
			if e.Type != types.EventBatchFinished {
				continue
			}
			finished, ok := e.Data.(*types.BatchFinishedEvent)
			require.True(t, ok)
			assert.Equal(t, resp.BatchID, e.BatchID)
			assert.Equal(t, 1, finished.Successful)
			assert.Equal(t, 1, finished.Failed)

			// extraction directory goes away once the batch returns
			require.Eventually(t, func() bool {
				matches, _ := filepath.Glob(filepath.Join(f.dir, "asset-ingest-*"))
				return len(matches) == 0
			}, 5*time.Second, 10*time.Millisecond)
			return
		case <-deadline:
			t.Fatal("batch did not finish")
		}
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func jsonField(t *testing.T, rec *httptest.ResponseRecorder, field string) json.RawMessage {
	t.Helper()

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
	return fields[field]
}
