package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/princekumarofficial/asset-service/internal/services/media"
	"github.com/princekumarofficial/asset-service/internal/types"
)

// DefaultBackendURL is used when neither a flag nor BACKEND_URL is set.
const DefaultBackendURL = "http://127.0.0.1:8001"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// HTTPClient uploads images to a running asset service.
type HTTPClient struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Health checks that the backend answers on /api/health.
func (c *HTTPClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("cannot connect to backend at %s: %w", c.BaseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend health check returned %s", resp.Status)
	}
	return nil
}

// Upload posts the image as multipart form data with the metadata as
// query parameters, the way /api/upload expects it.
func (c *HTTPClient) Upload(ctx context.Context, data []byte, filename string, meta types.Metadata) (int64, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	header.Set("Content-Type", media.ContentType(filename))
	part, err := mw.CreatePart(header)
	if err != nil {
		return 0, err
	}
	if _, err := part.Write(data); err != nil {
		return 0, err
	}
	if err := mw.Close(); err != nil {
		return 0, err
	}

	endpoint := c.BaseURL + "/api/upload"
	if q := MetadataQuery(meta).Encode(); q != "" {
		endpoint += "?" + q
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("failed to read upload response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("upload rejected (%s): %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var out types.UploadResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, fmt.Errorf("invalid upload response: %w", err)
	}
	if out.Asset == nil {
		return 0, fmt.Errorf("upload response carries no asset")
	}

	return out.Asset.ID, nil
}

// MetadataQuery encodes the present metadata fields as query parameters.
func MetadataQuery(meta types.Metadata) url.Values {
	q := url.Values{}
	for key, value := range map[string]*string{
		"angle_1":  meta.Angle1,
		"angle_2":  meta.Angle2,
		"action_1": meta.Action1,
		"action_2": meta.Action2,
		"action_3": meta.Action3,
		"prompt":   meta.Prompt,
	} {
		if value != nil {
			q.Set(key, *value)
		}
	}
	return q
}
