package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/princekumarofficial/asset-service/internal/events"
	"github.com/princekumarofficial/asset-service/internal/ingest"
	assetService "github.com/princekumarofficial/asset-service/internal/services/assets"
	"github.com/princekumarofficial/asset-service/internal/services/media"
	"github.com/princekumarofficial/asset-service/internal/storage"
	"github.com/princekumarofficial/asset-service/internal/types"
	"github.com/princekumarofficial/asset-service/internal/utils/response"
)

const (
	ServiceName    = "asset-service"
	ServiceVersion = "1.0.0"

	// multipart parts above this size spill to disk
	multipartMemory = 32 << 20
)

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// BulkUploadResponse carries the batch ID to follow on /ws/batches/{id}.
// Summary is empty for batches accepted to run in the background.
type BulkUploadResponse struct {
	BatchID string          `json:"batch_id"`
	Status  string          `json:"status"`
	Summary *ingest.Summary `json:"summary,omitempty"`
}

type AssetHandlers struct {
	service        *assetService.Service
	driver         ingest.Driver
	hub            events.Broadcaster
	maxUploadBytes int64
	validate       *validator.Validate
}

// NewAssetHandlers creates the asset handlers. driver is the template for
// bulk uploads; each batch gets a copy observed by the hub as well.
func NewAssetHandlers(service *assetService.Service, driver ingest.Driver, hub events.Broadcaster, maxUploadBytes int64) *AssetHandlers {
	return &AssetHandlers{
		service:        service,
		driver:         driver,
		hub:            hub,
		maxUploadBytes: maxUploadBytes,
		validate:       validator.New(),
	}
}

// Root redirects to the API documentation
func Root() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/docs/", http.StatusTemporaryRedirect)
	}
}

// Health godoc
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /api/health [get]
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "healthy",
			Service: ServiceName,
			Version: ServiceVersion,
		})
	}
}

func assetID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid asset id %q", r.PathValue("id"))
	}
	return id, nil
}

// metadataFrom reads the tag set from the query string, falling back to
// multipart form fields.
func metadataFrom(r *http.Request) types.Metadata {
	query := r.URL.Query()
	value := func(key string) *string {
		v := query.Get(key)
		if v == "" && r.MultipartForm != nil {
			v = r.PostFormValue(key)
		}
		return types.String(strings.TrimSpace(v))
	}

	return types.Metadata{
		Angle1:  value("angle_1"),
		Angle2:  value("angle_2"),
		Action1: value("action_1"),
		Action2: value("action_2"),
		Action3: value("action_3"),
		Prompt:  value("prompt"),
	}
}

// readUpload parses the multipart body and returns the "file" part.
func (h *AssetHandlers) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, int, error) {
	if h.maxUploadBytes > 0 {
		if r.ContentLength > h.maxUploadBytes {
			return nil, "", http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", h.maxUploadBytes)
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit)
		}
		return nil, "", http.StatusBadRequest, fmt.Errorf("invalid multipart body: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", http.StatusBadRequest, errors.New("file is required")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", http.StatusBadRequest, fmt.Errorf("failed to read upload: %w", err)
	}

	return data, header.Filename, http.StatusOK, nil
}

// Upload godoc
// @Summary Upload an image asset
// @Description Stores the image in the configured backend and records its metadata
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file"
// @Param angle_1 query string false "Angle direction 1"
// @Param angle_2 query string false "Angle direction 2"
// @Param action_1 query string false "Action direction 1"
// @Param action_2 query string false "Action direction 2"
// @Param action_3 query string false "Action direction 3"
// @Param prompt query string false "Prompt or description"
// @Success 200 {object} types.UploadResponse
// @Failure 400 {object} response.Response
// @Failure 413 {object} response.Response
// @Failure 429 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/upload [post]
func (h *AssetHandlers) Upload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, filename, status, err := h.readUpload(w, r)
		if err != nil {
			response.WriteError(w, status, err)
			return
		}
		defer r.MultipartForm.RemoveAll()

		asset, err := h.service.Create(r.Context(), data, filename, metadataFrom(r))
		if errors.Is(err, assetService.ErrEmptyFile) {
			response.WriteError(w, http.StatusBadRequest, err)
			return
		} else if err != nil {
			slog.Error("Upload failed", slog.String("filename", filename), slog.String("error", err.Error()))
			response.WriteError(w, http.StatusInternalServerError, fmt.Errorf("upload failed: %w", err))
			return
		}

		response.WriteJSON(w, http.StatusOK, types.UploadResponse{
			Success: true,
			Message: "Image uploaded successfully",
			Asset:   asset,
			S3URL:   asset.Locator(),
		})
	}
}

func parseSearch(r *http.Request) (types.SearchParams, error) {
	query := r.URL.Query()
	params := types.SearchParams{
		Limit: types.DefaultSearchLimit,
	}

	filter := func(key string) *string {
		return types.String(strings.TrimSpace(query.Get(key)))
	}
	params.Angle1 = filter("angle_1")
	params.Angle2 = filter("angle_2")
	params.Action1 = filter("action_1")
	params.Action2 = filter("action_2")
	params.Action3 = filter("action_3")
	params.Prompt = filter("prompt")

	var err error
	if v := query.Get("include_deleted"); v != "" {
		if params.IncludeDeleted, err = strconv.ParseBool(v); err != nil {
			return params, fmt.Errorf("include_deleted must be a boolean")
		}
	}
	if v := query.Get("limit"); v != "" {
		if params.Limit, err = strconv.Atoi(v); err != nil {
			return params, fmt.Errorf("limit must be an integer")
		}
	}
	if v := query.Get("offset"); v != "" {
		if params.Offset, err = strconv.Atoi(v); err != nil {
			return params, fmt.Errorf("offset must be an integer")
		}
	}

	return params, nil
}

// Search godoc
// @Summary Search image assets
// @Description Exact match on angle and action tags, substring match on prompt. Ordered by id.
// @Tags search
// @Produce json
// @Param angle_1 query string false "Filter by angle_1"
// @Param angle_2 query string false "Filter by angle_2"
// @Param action_1 query string false "Filter by action_1"
// @Param action_2 query string false "Filter by action_2"
// @Param action_3 query string false "Filter by action_3"
// @Param prompt query string false "Filter by prompt (partial match)"
// @Param include_deleted query bool false "Include soft-deleted assets"
// @Param limit query int false "Maximum number of results (1-1000)" default(100)
// @Param offset query int false "Offset for pagination" default(0)
// @Success 200 {object} types.SearchResponse
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/search [get]
func (h *AssetHandlers) Search() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := parseSearch(r)
		if err != nil {
			response.WriteError(w, http.StatusBadRequest, err)
			return
		}
		if err := h.validate.Struct(params); err != nil {
			response.WriteError(w, http.StatusBadRequest, err)
			return
		}

		total, results, err := h.service.Search(r.Context(), params)
		if err != nil {
			response.WriteError(w, http.StatusInternalServerError, fmt.Errorf("search failed: %w", err))
			return
		}
		if results == nil {
			results = []types.Asset{}
		}

		response.WriteJSON(w, http.StatusOK, types.SearchResponse{
			Total:   total,
			Limit:   params.Limit,
			Offset:  params.Offset,
			Results: results,
		})
	}
}

// GetAsset godoc
// @Summary Get asset metadata
// @Description Soft-deleted assets are still returned
// @Tags assets
// @Produce json
// @Param id path int true "Asset ID"
// @Success 200 {object} types.Asset
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/assets/{id} [get]
func (h *AssetHandlers) GetAsset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := assetID(r)
		if err != nil {
			response.WriteError(w, http.StatusBadRequest, err)
			return
		}

		asset, err := h.service.Get(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteError(w, http.StatusNotFound, fmt.Errorf("asset with ID %d not found", id))
			return
		} else if err != nil {
			response.WriteError(w, http.StatusInternalServerError, fmt.Errorf("failed to get asset: %w", err))
			return
		}

		response.WriteJSON(w, http.StatusOK, asset)
	}
}

// DeleteAsset godoc
// @Summary Delete an asset
// @Description Soft delete sets deleted_at and keeps the stored image. Hard delete removes the image and the record.
// @Tags assets
// @Produce json
// @Param id path int true "Asset ID"
// @Param hard_delete query bool false "Permanently delete the record and the stored image"
// @Success 200 {object} types.DeleteResponse
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/assets/{id} [delete]
func (h *AssetHandlers) DeleteAsset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := assetID(r)
		if err != nil {
			response.WriteError(w, http.StatusBadRequest, err)
			return
		}

		hard := false
		if v := r.URL.Query().Get("hard_delete"); v != "" {
			if hard, err = strconv.ParseBool(v); err != nil {
				response.WriteError(w, http.StatusBadRequest, errors.New("hard_delete must be a boolean"))
				return
			}
		}

		resp := types.DeleteResponse{Success: true}
		if hard {
			err = h.service.HardDelete(r.Context(), id)
			resp.Message = fmt.Sprintf("Asset %d permanently deleted", id)
		} else {
			resp.DeletedAsset, err = h.service.SoftDelete(r.Context(), id)
			resp.Message = fmt.Sprintf("Asset %d soft deleted", id)
		}

		if errors.Is(err, storage.ErrNotFound) {
			response.WriteError(w, http.StatusNotFound, fmt.Errorf("asset with ID %d not found", id))
			return
		} else if err != nil {
			response.WriteError(w, http.StatusInternalServerError, fmt.Errorf("delete failed: %w", err))
			return
		}

		slog.Info("Asset deleted", slog.Int64("asset_id", id), slog.Bool("hard", hard))
		response.WriteJSON(w, http.StatusOK, resp)
	}
}

// Download godoc
// @Summary Download an asset
// @Description Streams locally stored images and redirects to the presigned URL for S3
// @Tags download
// @Param id path int true "Asset ID"
// @Success 200 {file} binary
// @Success 307
// @Failure 404 {object} response.Response
// @Failure 410 {object} response.Response
// @Router /api/download/{id} [get]
func (h *AssetHandlers) Download() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := assetID(r)
		if err != nil {
			response.WriteError(w, http.StatusBadRequest, err)
			return
		}

		asset, err := h.service.Get(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteError(w, http.StatusNotFound, fmt.Errorf("asset with ID %d not found", id))
			return
		} else if err != nil {
			response.WriteError(w, http.StatusInternalServerError, fmt.Errorf("download failed: %w", err))
			return
		}

		if asset.IsDeleted() {
			response.WriteError(w, http.StatusGone, fmt.Errorf("asset with ID %d has been deleted", id))
			return
		}

		switch {
		case asset.S3URL != nil:
			http.Redirect(w, r, *asset.S3URL, http.StatusTemporaryRedirect)
		case asset.LocalFilePath != nil:
			h.serveLocal(w, r, asset)
		default:
			response.WriteError(w, http.StatusNotFound, errors.New("no file location found for this asset"))
		}
	}
}

func (h *AssetHandlers) serveLocal(w http.ResponseWriter, r *http.Request, asset *types.Asset) {
	file, err := h.service.Open(r.Context(), asset)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, media.ErrInvalidLocator) {
		response.WriteError(w, http.StatusNotFound, fmt.Errorf("file not found: %s", asset.Locator()))
		return
	} else if err != nil {
		response.WriteError(w, http.StatusInternalServerError, fmt.Errorf("download failed: %w", err))
		return
	}
	defer file.Close()

	name := types.Value(asset.OriginalFilename)
	if name == "" {
		name = fmt.Sprintf("asset-%d", asset.ID)
	}

	w.Header().Set("Content-Type", media.ContentType(name))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, file); err != nil {
		slog.Warn("Download interrupted", slog.Int64("asset_id", asset.ID), slog.String("error", err.Error()))
	}
}

// Actions godoc
// @Summary List action tags
// @Description Distinct non-empty action_1 values, sorted
// @Tags metadata
// @Produce json
// @Success 200 {object} types.ActionsResponse
// @Failure 500 {object} response.Response
// @Router /api/metadata/actions [get]
func (h *AssetHandlers) Actions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actions, err := h.service.Actions(r.Context())
		if err != nil {
			response.WriteError(w, http.StatusInternalServerError, fmt.Errorf("failed to get actions: %w", err))
			return
		}
		if actions == nil {
			actions = []string{}
		}

		response.WriteJSON(w, http.StatusOK, types.ActionsResponse{
			Actions: actions,
			Count:   len(actions),
		})
	}
}

// BulkUpload godoc
// @Summary Bulk upload a zip archive
// @Description The archive holds one CSV and the images it references. Rows are uploaded in file order; progress is published on /ws/batches/{batch_id}. With async=true the batch runs in the background and 202 is returned at once.
// @Tags bulk
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Zip archive"
// @Param batch_id query string false "Client-chosen batch UUID"
// @Param async query bool false "Run in the background"
// @Success 200 {object} BulkUploadResponse
// @Success 202 {object} BulkUploadResponse
// @Failure 400 {object} response.Response
// @Failure 422 {object} BulkUploadResponse
// @Failure 429 {object} response.Response
// @Router /api/bulk-upload [post]
func (h *AssetHandlers) BulkUpload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		batchID := query.Get("batch_id")
		if batchID == "" {
			batchID = uuid.NewString()
		} else if _, err := uuid.Parse(batchID); err != nil {
			response.WriteError(w, http.StatusBadRequest, errors.New("batch_id must be a UUID"))
			return
		}

		async := false
		if v := query.Get("async"); v != "" {
			var err error
			if async, err = strconv.ParseBool(v); err != nil {
				response.WriteError(w, http.StatusBadRequest, errors.New("async must be a boolean"))
				return
			}
		}

		data, _, status, err := h.readUpload(w, r)
		if err != nil {
			response.WriteError(w, status, err)
			return
		}
		defer r.MultipartForm.RemoveAll()

		zipPath, err := spool(data)
		if err != nil {
			response.WriteError(w, http.StatusInternalServerError, err)
			return
		}

		if async {
			ctx := context.WithoutCancel(r.Context())
			go func() {
				defer os.Remove(zipPath)
				h.runBatch(ctx, batchID, zipPath)
			}()
			response.WriteJSON(w, http.StatusAccepted, BulkUploadResponse{BatchID: batchID, Status: "accepted"})
			return
		}

		defer os.Remove(zipPath)
		summary := h.runBatch(r.Context(), batchID, zipPath)

		resp := BulkUploadResponse{BatchID: batchID, Status: "completed", Summary: summary}
		if summary.Aborted {
			resp.Status = "aborted"
			response.WriteJSON(w, http.StatusUnprocessableEntity, resp)
			return
		}
		response.WriteJSON(w, http.StatusOK, resp)
	}
}

func (h *AssetHandlers) runBatch(ctx context.Context, batchID, zipPath string) *ingest.Summary {
	driver := h.driver
	driver.Logger = slog.Default().With(slog.String("batch_id", batchID))

	var observers ingest.Observers
	if h.driver.Observer != nil {
		observers = append(observers, h.driver.Observer)
	}
	if h.hub != nil {
		observers = append(observers, events.NewBatchPublisher(h.hub, batchID))
	}
	driver.Observer = observers

	summary, err := driver.IngestArchive(ctx, zipPath)
	if err != nil {
		slog.Warn("Bulk upload aborted", slog.String("batch_id", batchID), slog.String("error", err.Error()))
	}
	slog.Info("Bulk upload finished",
		slog.String("batch_id", batchID),
		slog.Int("total", summary.Total),
		slog.Int("successful", summary.Successful),
		slog.Int("failed", summary.Failed))

	return summary
}

// spool writes the archive to a temporary file for the zip reader.
func spool(data []byte) (string, error) {
	f, err := os.CreateTemp("", "bulk-upload-*.zip")
	if err != nil {
		return "", fmt.Errorf("failed to spool archive: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to spool archive: %w", err)
	}
	return f.Name(), nil
}
