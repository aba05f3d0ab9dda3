package domain

import (
	"net/url"
)

// StorageEvent is the object-created notification sent by the photo bucket.
// Only the fields the detector needs are decoded.
type StorageEvent struct {
	Records []StorageRecord `json:"Records"`
}

type StorageRecord struct {
	EventName string `json:"eventName,omitempty"`
	S3        struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key  string `json:"key"`
			Size int64  `json:"size,omitempty"`
		} `json:"object"`
	} `json:"s3"`
}

// Bucket returns the bucket name of the record
func (r StorageRecord) Bucket() string {
	return r.S3.Bucket.Name
}

// Key returns the object key. S3 notifications URL-encode keys (spaces as '+'),
// plain keys pass through unchanged.
func (r StorageRecord) Key() string {
	key := r.S3.Object.Key
	if decoded, err := url.QueryUnescape(key); err == nil {
		return decoded
	}
	return key
}
