// Package storage is the object storage layer encrypted backups are archived
// to. Drivers exist for AWS S3, Google Cloud Storage, MinIO and process memory.
package storage
