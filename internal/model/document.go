package model

import "time"

// OwnerType names the kind of record a document is attached to.
type OwnerType string

const (
	OwnerVehicleRental OwnerType = "vehicle_rental"
	OwnerFormation     OwnerType = "formation"
)

// DocumentOwner identifies the record a document belongs to.
type DocumentOwner struct {
	Type OwnerType
	ID   uint64
}

// TempDocument is an uploaded file waiting to be finalized.  Rows older
// than the configured TTL are swept together with their blobs.
//
// Fields:
//  TempID       – generated identifier returned to the client.
//  Title        – user supplied title.
//  OriginalName – file name as uploaded.
//  StorageKey   – key of the blob in the temp partition.
//  SizeBytes    – file size.
//  Category     – document category (license, identity, ...).
//  Owner        – rental or formation the file was uploaded for.
//  UploadedBy   – authenticated uploader, if any.
//  CreatedAt    – upload time.
type TempDocument struct {
	TempID       string        // temp_documents.temp_id
	Title        string        // temp_documents.title
	OriginalName string        // temp_documents.original_name
	StorageKey   string        // temp_documents.storage_key
	SizeBytes    int64         // temp_documents.size_bytes
	Category     string        // temp_documents.category
	Owner        DocumentOwner // temp_documents.owner_type, owner_id
	UploadedBy   *uint64       // temp_documents.uploaded_by (nullable)
	CreatedAt    time.Time     // temp_documents.created_at
}

// Document is the durable record of a finalized upload.
type Document struct {
	ID           uint64        // documents.id
	Title        string        // documents.title
	OriginalName string        // documents.original_name
	StorageKey   string        // documents.storage_key
	SizeBytes    int64         // documents.size_bytes
	Category     string        // documents.category
	Owner        DocumentOwner // documents.owner_type, owner_id
	UploadedBy   *uint64       // documents.uploaded_by (nullable)
	CreatedAt    time.Time     // documents.created_at
}
