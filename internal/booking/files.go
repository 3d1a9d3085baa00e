package booking

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/iliyamo/taxischool/internal/model"
)

// MaxUploadBytes caps a single uploaded document.
const MaxUploadBytes int64 = 10 << 20

// Storage partitions under the uploads root.
const (
	PartitionTemp      = "temp"
	PartitionDocuments = "documents"
	PartitionLicenses  = "licenses"
)

// CategoryLicense files land in the licenses partition.
const CategoryLicense = "license"

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".xls":  true,
	".xlsx": true,
}

// ValidateUpload checks the extension against the allow-list and the
// size against MaxUploadBytes.  It returns the lower-cased extension
// including the dot.
func ValidateUpload(name string, size int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: extension %q is not allowed", ErrInvalidFile, ext)
	}
	if size <= 0 {
		return "", fmt.Errorf("%w: file is empty", ErrInvalidFile)
	}
	if size > MaxUploadBytes {
		return "", fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidFile, MaxUploadBytes)
	}
	return ext, nil
}

// Column widths of the document metadata, in characters.
const (
	MaxTitleLen    = 200
	MaxCategoryLen = 40
	MaxFileNameLen = 255
)

// ValidateDocumentMeta checks title, category and file name against the
// widths of their columns.
func ValidateDocumentMeta(title, category, fileName string) error {
	verr := &ValidationError{}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		verr.Add("title", fmt.Sprintf("must be at most %d characters", MaxTitleLen))
	}
	if utf8.RuneCountInString(category) > MaxCategoryLen {
		verr.Add("category", fmt.Sprintf("must be at most %d characters", MaxCategoryLen))
	}
	if utf8.RuneCountInString(fileName) > MaxFileNameLen {
		verr.Add("file", fmt.Sprintf("name must be at most %d characters", MaxFileNameLen))
	}
	return verr.OrNil()
}

// ParseOwnerType validates the owner kind of an upload.
func ParseOwnerType(s string) (model.OwnerType, error) {
	switch t := model.OwnerType(strings.ToLower(strings.TrimSpace(s))); t {
	case model.OwnerVehicleRental, model.OwnerFormation:
		return t, nil
	}
	return "", NewValidationError("owner_type", "must be vehicle_rental or formation")
}

// TempKey is the storage key of a temp upload.
func TempKey(tempID, ext string) string {
	return PartitionTemp + "/" + tempID + ext
}

// PermanentKey is the storage key of a finalized document.  Licenses are
// kept apart from other documents.
func PermanentKey(category, name, ext string) string {
	partition := PartitionDocuments
	if strings.EqualFold(category, CategoryLicense) {
		partition = PartitionLicenses
	}
	return partition + "/" + name + ext
}
