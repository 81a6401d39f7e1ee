package model

import "time"

// StoredFile is the metadata entry for an uploaded file. It is written once,
// after the bytes are in object storage. Path is the object key; the public
// URL is derived from it by the storage layer.
type StoredFile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Postfix    string    `json:"postfix"`
	Path       string    `json:"path"`
	Type       string    `json:"type"`
	PointID    int64     `json:"point_id"`
	UploadedAt time.Time `json:"uploaded_at"`
}
