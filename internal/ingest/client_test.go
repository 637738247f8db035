package ingest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/princekumarofficial/asset-service/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientUpload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/upload", r.URL.Path)
		assert.Equal(t, "above", r.URL.Query().Get("angle_1"))
		assert.Equal(t, "sit", r.URL.Query().Get("action_1"))
		assert.False(t, r.URL.Query().Has("action_2"))

		file, fh, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)

		assert.Equal(t, "test right_02.png", fh.Filename)
		assert.Equal(t, "image/png", fh.Header.Get("Content-Type"))
		assert.Equal(t, "png-bytes", string(data))

		json.NewEncoder(w).Encode(types.UploadResponse{Success: true, Asset: &types.Asset{ID: 42}})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL + "/")
	id, err := client.Upload(context.Background(), []byte("png-bytes"), "test right_02.png", types.Metadata{
		Angle1:  types.String("above"),
		Action1: types.String("sit"),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)
}

func TestHTTPClientUploadRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Upload failed: disk full"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewHTTPClient(server.URL).Upload(context.Background(), []byte("x"), "a.png", types.Metadata{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "disk full")
}

func TestHTTPClientHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"status":"healthy"}`))
	}))

	client := NewHTTPClient(server.URL)
	require.NoError(t, client.Health(context.Background()))

	server.Close()
	assert.Error(t, client.Health(context.Background()))
}

func TestMetadataQuery(t *testing.T) {
	q := MetadataQuery(types.Metadata{Angle2: types.String("side"), Prompt: types.String("a b")})
	assert.Equal(t, "angle_2=side&prompt=a+b", q.Encode())
}
