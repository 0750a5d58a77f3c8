package model

import (
	"encoding/json"
	"strconv"
	"time"
)

// StorageObject is the stored file a document id resolves to.
// Key is the object's name relative to the storage root, e.g. "abc123.docx".
type StorageObject struct {
	Key          string    `json:"key"`
	BaseName     string    `json:"base_name"`
	Extension    string    `json:"extension"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Identity is the caller identity reported to WOPI clients.
type Identity struct {
	UserID    string
	CanWrite  bool
	NumericID bool
}

// FileInfo is the CheckFileInfo response body. It is built per request and never cached.
type FileInfo struct {
	BaseFileName     string `json:"BaseFileName"`
	Size             int64  `json:"Size"`
	UserId           string `json:"UserId"` // a JSON number when WOPI_USER_ID_NUMERIC is set
	UserCanWrite     bool   `json:"UserCanWrite"`
	LastModifiedTime string `json:"LastModifiedTime,omitempty"`

	// NumericUserID emits an integer UserId as a JSON number ("UserId":1).
	NumericUserID bool `json:"-"`
}

// MarshalJSON writes UserId as a number when NumericUserID is set and the id is an
// integer, and as a string otherwise.
func (f FileInfo) MarshalJSON() ([]byte, error) {
	type plain FileInfo
	if !f.NumericUserID {
		return json.Marshal(plain(f))
	}
	n, err := strconv.ParseInt(f.UserId, 10, 64)
	if err != nil {
		return json.Marshal(plain(f))
	}
	return json.Marshal(struct {
		plain
		UserId int64 `json:"UserId"`
	}{plain(f), n})
}

// IndexEntry maps a document id to its object key for the indexed resolver.
type IndexEntry struct {
	ID        string    `json:"id"`
	ObjectKey string    `json:"object_key"`
	UpdatedAt time.Time `json:"updated_at"`
}
