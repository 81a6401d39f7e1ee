package handler

import (
	"bytes"

	"github.com/gofiber/fiber/v2"

	"dataplatform/internal/apperror"
	"dataplatform/internal/service"
	"dataplatform/internal/spreadsheet"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// UploadFile stores one file under the location at the given coordinates.
//
// @Summary Upload a file bound to a location
// @Tags data
// @Accept multipart/form-data
// @Produce json
// @Param latitude formData number true "Latitude"
// @Param longitude formData number true "Longitude"
// @Param file formData file true "Image or document"
// @Success 200 {object} Result{data=string} "data is the public path"
// @Failure 400 {object} Result
// @Failure 404 {object} Result
// @Failure 413 {object} Result
// @Failure 415 {object} Result
// @Failure 500 {object} Result
// @Router /data/upload [post]
func UploadFile(svc service.DataService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return apperror.New(apperror.ParamRequire)
		}

		f, err := fh.Open()
		if err != nil {
			return apperror.Wrap(apperror.ParamInvalid, err)
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		path, err := svc.UploadFile(c.UserContext(), service.UploadInput{
			Latitude:    c.FormValue("latitude"),
			Longitude:   c.FormValue("longitude"),
			Content:     f,
			Filename:    fh.Filename,
			ContentType: ct,
			Size:        fh.Size,
		})
		if err != nil {
			return err
		}
		return ok(c, path)
	}
}

// ImportMonitoringData imports a monitoring spreadsheet.
//
// @Summary Import monitoring data from xls/xlsx
// @Tags data
// @Accept multipart/form-data
// @Produce json
// @Param latitude formData number false "Latitude of the monitoring point"
// @Param longitude formData number false "Longitude of the monitoring point"
// @Param file formData file true "Spreadsheet"
// @Success 200 {object} Result{data=service.ImportResult}
// @Failure 400 {object} Result
// @Failure 413 {object} Result
// @Failure 415 {object} Result
// @Failure 500 {object} Result
// @Router /data/excel [post]
func ImportMonitoringData(svc service.DataService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return apperror.New(apperror.ParamRequire)
		}

		f, err := fh.Open()
		if err != nil {
			return apperror.Wrap(apperror.ReadExcelError, err)
		}
		defer f.Close()

		res, err := svc.ImportMonitoringData(c.UserContext(), service.ImportInput{
			Latitude:  c.FormValue("latitude"),
			Longitude: c.FormValue("longitude"),
			Content:   f,
			Filename:  fh.Filename,
			Size:      fh.Size,
		})
		if err != nil {
			return err
		}
		return ok(c, res)
	}
}

// DownloadTemplate serves an empty import workbook with the header row.
//
// @Summary Monitoring import template
// @Tags data
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Router /data/excel/template [get]
func DownloadTemplate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var buf bytes.Buffer
		if err := spreadsheet.WriteTemplate(&buf); err != nil {
			return apperror.Wrap(apperror.ServerError, err)
		}
		c.Set(fiber.HeaderContentType, xlsxContentType)
		c.Attachment("monitoring_template.xlsx")
		return c.Send(buf.Bytes())
	}
}
