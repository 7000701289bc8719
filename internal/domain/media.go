package domain

import "time"

// MediaFile is the metadata record for an uploaded media object, stored in
// the KV document store under `media:<id>`. The object body lives in S3.
type MediaFile struct {
	MediaID   string    `json:"id"`
	Object    string    `json:"object"` // S3 key
	Size      int64     `json:"size"`
	Type      string    `json:"type"`
	Name      string    `json:"name"`
	Hash      string    `json:"hash"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created"`
}
