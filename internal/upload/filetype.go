package upload

import (
	"path/filepath"
	"strings"
)

// Category tags stored with each file.
const (
	CategoryImage       = "image"
	CategoryDocument    = "document"
	CategorySpreadsheet = "spreadsheet"
	CategoryOther       = "other"
)

var categories = map[string]string{
	"jpg":  CategoryImage,
	"jpeg": CategoryImage,
	"png":  CategoryImage,
	"gif":  CategoryImage,
	"bmp":  CategoryImage,
	"webp": CategoryImage,
	"tif":  CategoryImage,
	"tiff": CategoryImage,

	"pdf":  CategoryDocument,
	"doc":  CategoryDocument,
	"docx": CategoryDocument,
	"txt":  CategoryDocument,
	"ppt":  CategoryDocument,
	"pptx": CategoryDocument,
	"csv":  CategoryDocument,
	"md":   CategoryDocument,

	"xls":  CategorySpreadsheet,
	"xlsx": CategorySpreadsheet,
}

// Extension returns the lower-cased extension of filename without the dot,
// or "" when there is none.
func Extension(filename string) string {
	ext := filepath.Ext(strings.TrimSpace(filename))
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// CategoryOf maps an extension (with or without the leading dot) to its
// category tag.
func CategoryOf(ext string) string {
	if c, ok := categories[strings.ToLower(strings.TrimPrefix(ext, "."))]; ok {
		return c
	}
	return CategoryOther
}
