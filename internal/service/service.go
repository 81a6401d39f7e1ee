// Package service holds the platform use cases: binding uploaded files to a
// location, importing monitoring spreadsheets, and querying stored files.
//
// Services return errors tagged with an apperror.Code; the HTTP layer turns
// them into responses.
package service

import (
	"io"
	"math"
	"strconv"
	"strings"

	"dataplatform/internal/apperror"
)

// UploadInput is one file bound to the location at (Latitude, Longitude).
// Coordinates are the raw form values.
type UploadInput struct {
	Latitude    string
	Longitude   string
	Content     io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// ImportInput is a monitoring spreadsheet. Coordinates are optional; when
// both are blank the records are stored without a location.
type ImportInput struct {
	Latitude  string
	Longitude string
	Content   io.Reader
	Filename  string
	Size      int64
}

// ImportResult reports how many records one import wrote.
type ImportResult struct {
	Rows int `json:"rows"`
}

// FileListResult is the service-level DTO for paginated files.
type FileListResult struct {
	Items []FileView `json:"items"`
	Total int        `json:"total"`
}

func parseCoordinates(lat, lon string) (float64, float64, error) {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil || math.IsNaN(la) || la < -90 || la > 90 {
		return 0, 0, apperror.New(apperror.ParamInvalid)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil || math.IsNaN(lo) || lo < -180 || lo > 180 {
		return 0, 0, apperror.New(apperror.ParamInvalid)
	}
	return la, lo, nil
}
