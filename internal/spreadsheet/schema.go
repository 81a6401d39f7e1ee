package spreadsheet

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"dataplatform/internal/model"
)

// Column positions of the monitoring sheet.
const (
	ColSensorID = iota
	ColMeasuredAt
	ColTemperature
	ColHumidity
	ColPressure
	ColWindSpeed
	ColWindDirection
	ColPrecipitation
)

// Columns names each position, in order. Used for error reporting and as the
// header row of generated templates.
var Columns = []string{
	"sensor_id",
	"measured_at",
	"temperature",
	"humidity",
	"pressure",
	"wind_speed",
	"wind_direction",
	"precipitation",
}

var errRequired = errors.New("value is required")

// timeLayouts are tried in order. Values without a zone are read as UTC.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/1/2 15:04:05",
	"2006/01/02 15:04",
	"2006/1/2 15:04",
	"2006/01/02",
	"2006/1/2",
	"2006.01.02 15:04:05",
	"2006.01.02",
	"1/2/06 15:04",
	"01-02-06 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
}

type cellError struct {
	column string
	err    error
}

func (e *cellError) Error() string {
	return fmt.Sprintf("%s: %v", e.column, e.err)
}

func parseRecord(cols []string) (model.MonitoringRecord, error) {
	cell := func(i int) string {
		if i < len(cols) {
			return strings.TrimSpace(cols[i])
		}
		return ""
	}

	var rec model.MonitoringRecord

	rec.SensorID = cell(ColSensorID)
	if rec.SensorID == "" {
		return rec, &cellError{Columns[ColSensorID], errRequired}
	}

	raw := cell(ColMeasuredAt)
	if raw == "" {
		return rec, &cellError{Columns[ColMeasuredAt], errRequired}
	}
	ts, err := parseTime(raw)
	if err != nil {
		return rec, &cellError{Columns[ColMeasuredAt], err}
	}
	rec.MeasuredAt = ts

	measurements := []struct {
		col int
		dst **float64
	}{
		{ColTemperature, &rec.Temperature},
		{ColHumidity, &rec.Humidity},
		{ColPressure, &rec.Pressure},
		{ColWindSpeed, &rec.WindSpeed},
		{ColWindDirection, &rec.WindDirection},
		{ColPrecipitation, &rec.Precipitation},
	}
	for _, m := range measurements {
		v, err := parseNumber(cell(m.col))
		if err != nil {
			return rec, &cellError{Columns[m.col], err}
		}
		*m.dst = v
	}

	return rec, nil
}

// parseNumber returns nil for an empty cell. Commas are accepted only as
// thousands separators; "21,5" is rejected rather than read as 215.
func parseNumber(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	plain, ok := stripThousands(s)
	if !ok {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	f, err := strconv.ParseFloat(plain, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return &f, nil
}

// stripThousands removes grouping commas from s. Every group after the first
// must be exactly three digits and the first group at most three.
func stripThousands(s string) (string, bool) {
	if !strings.Contains(s, ",") {
		return s, true
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	if strings.Contains(frac, ",") {
		return "", false
	}
	groups := strings.Split(strings.TrimLeft(intPart, "+-"), ",")
	for i, g := range groups {
		if g == "" || len(g) > 3 || (i > 0 && len(g) != 3) {
			return "", false
		}
		for _, r := range g {
			if r < '0' || r > '9' {
				return "", false
			}
		}
	}
	plain := strings.ReplaceAll(intPart, ",", "")
	if hasFrac {
		plain += "." + frac
	}
	return plain, true
}

// parseTime accepts the layouts above or an Excel date serial.
func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}
