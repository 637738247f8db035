package types

import "time"

// Metadata is the tag set attached to an image asset. A nil field means
// the tag is absent; an empty string is never stored.
type Metadata struct {
	Angle1  *string `json:"angle_1"`
	Angle2  *string `json:"angle_2"`
	Action1 *string `json:"action_1"`
	Action2 *string `json:"action_2"`
	Action3 *string `json:"action_3"`
	Prompt  *string `json:"prompt"`
}

// Asset is one persisted image record. Exactly one of S3URL and
// LocalFilePath is set once the record has been created.
type Asset struct {
	ID        int64      `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at"`
	Metadata
	OriginalFilename *string `json:"original_filename"`
	S3URL            *string `json:"s3_url"`
	LocalFilePath    *string `json:"local_file_path"`
}

// Locator returns the storage locator of the asset, whichever field holds it.
func (a *Asset) Locator() string {
	if a.S3URL != nil {
		return *a.S3URL
	}
	if a.LocalFilePath != nil {
		return *a.LocalFilePath
	}
	return ""
}

// IsDeleted reports whether the asset has been soft deleted.
func (a *Asset) IsDeleted() bool {
	return a.DeletedAt != nil
}

type SearchParams struct {
	Metadata
	IncludeDeleted bool `json:"include_deleted"`
	Limit          int  `json:"limit" validate:"min=1,max=1000"`
	Offset         int  `json:"offset" validate:"min=0"`
}

const (
	DefaultSearchLimit = 100
	MaxSearchLimit     = 1000
)

type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Asset   *Asset `json:"asset,omitempty"`
	S3URL   string `json:"s3_url,omitempty"`
}

type SearchResponse struct {
	Total   int64   `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
	Results []Asset `json:"results"`
}

type DeleteResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	DeletedAsset *Asset `json:"deleted_asset,omitempty"`
}

type ActionsResponse struct {
	Actions []string `json:"actions"`
	Count   int      `json:"count"`
}

// String returns a pointer to s, or nil when s is empty.
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Value dereferences p, returning "" for nil.
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
