// Package upload validates incoming files before any content is read and
// names them for object storage.
package upload

import (
	"fmt"
	"io"
	"strings"

	"dataplatform/internal/apperror"
)

// DefaultMaxSize is the ceiling used when none is configured.
const DefaultMaxSize int64 = 3 << 20

// Rules is an upload policy: a size ceiling and the accepted extensions.
type Rules struct {
	MaxSize    int64
	Extensions map[string]struct{}
}

// SpreadsheetRules accepts xls and xlsx files up to maxSize bytes.
func SpreadsheetRules(maxSize int64) Rules {
	return Rules{MaxSize: maxSize, Extensions: set("xls", "xlsx")}
}

// GenericRules accepts every image, document and spreadsheet extension known
// to the category table.
func GenericRules(maxSize int64) Rules {
	exts := make(map[string]struct{}, len(categories))
	for ext := range categories {
		exts[ext] = struct{}{}
	}
	return Rules{MaxSize: maxSize, Extensions: exts}
}

func set(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

// Allows reports whether ext is on the allow-list.
func (r Rules) Allows(ext string) bool {
	_, ok := r.Extensions[strings.ToLower(ext)]
	return ok
}

// Validate checks presence, size and extension in that order and returns
// the accepted extension. Content is never read.
func (r Rules) Validate(content io.Reader, filename string, size int64) (string, error) {
	if content == nil || size <= 0 {
		return "", apperror.New(apperror.ParamInvalid)
	}
	if r.MaxSize > 0 && size > r.MaxSize {
		return "", apperror.Wrap(apperror.OverSize, fmt.Errorf("%d bytes exceeds %d", size, r.MaxSize))
	}
	ext := Extension(filename)
	if ext == "" || !r.Allows(ext) {
		return "", apperror.Wrap(apperror.FileTypeError, fmt.Errorf("extension %q not allowed", ext))
	}
	return ext, nil
}
