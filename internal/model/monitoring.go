package model

import (
	"time"

	"github.com/google/uuid"
)

// MonitoringRecord is one parsed spreadsheet row. Empty measurement cells are
// nil.
type MonitoringRecord struct {
	SensorID      string
	MeasuredAt    time.Time
	Temperature   *float64
	Humidity      *float64
	Pressure      *float64
	WindSpeed     *float64
	WindDirection *float64
	Precipitation *float64
}

// MonitoringData is the persisted form of a MonitoringRecord.
type MonitoringData struct {
	ID            string    `json:"id"`
	PointID       *int64    `json:"point_id,omitempty"`
	SensorID      string    `json:"sensor_id"`
	MeasuredAt    time.Time `json:"measured_at"`
	Temperature   *float64  `json:"temperature,omitempty"`
	Humidity      *float64  `json:"humidity,omitempty"`
	Pressure      *float64  `json:"pressure,omitempty"`
	WindSpeed     *float64  `json:"wind_speed,omitempty"`
	WindDirection *float64  `json:"wind_direction,omitempty"`
	Precipitation *float64  `json:"precipitation,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewMonitoringData copies rec field by field into a new persisted entity.
func NewMonitoringData(rec MonitoringRecord, pointID *int64, now time.Time) *MonitoringData {
	return &MonitoringData{
		ID:            uuid.NewString(),
		PointID:       pointID,
		SensorID:      rec.SensorID,
		MeasuredAt:    rec.MeasuredAt,
		Temperature:   rec.Temperature,
		Humidity:      rec.Humidity,
		Pressure:      rec.Pressure,
		WindSpeed:     rec.WindSpeed,
		WindDirection: rec.WindDirection,
		Precipitation: rec.Precipitation,
		CreatedAt:     now,
	}
}
