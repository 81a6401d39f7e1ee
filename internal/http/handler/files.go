package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"dataplatform/internal/apperror"
	"dataplatform/internal/service"
)

// ListFiles lists uploaded files, newest first.
//
// @Summary List files
// @Tags files
// @Produce json
// @Param point_id query int false "Location id"
// @Param limit query int false "Page size" default(10)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} Result{data=service.FileListResult}
// @Failure 400 {object} Result
// @Router /files [get]
func ListFiles(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pointID, err := strconv.ParseInt(c.Query("point_id", "0"), 10, 64)
		if err != nil {
			return apperror.Wrap(apperror.ParamInvalid, err)
		}
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return apperror.Wrap(apperror.ParamInvalid, err)
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return apperror.Wrap(apperror.ParamInvalid, err)
		}

		res, err := svc.ListFiles(c.UserContext(), pointID, limit, offset)
		if err != nil {
			return err
		}
		return ok(c, res)
	}
}

// GetFile returns one file record.
//
// @Summary Get file
// @Tags files
// @Produce json
// @Param id path string true "File id (UUID)"
// @Success 200 {object} Result{data=service.FileView}
// @Failure 400 {object} Result
// @Failure 404 {object} Result
// @Router /files/{id} [get]
func GetFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return apperror.Wrap(apperror.ParamInvalid, err)
		}
		f, err := svc.GetFile(c.UserContext(), id)
		if err != nil {
			return err
		}
		return ok(c, f)
	}
}

// PresignFile returns a time-limited download link.
//
// @Summary Presigned download URL
// @Tags files
// @Produce json
// @Param id path string true "File id (UUID)"
// @Param expiry query string false "Validity, Go duration syntax" default(15m)
// @Success 200 {object} Result{data=service.PresignResult}
// @Failure 400 {object} Result
// @Failure 404 {object} Result
// @Router /files/{id}/url [get]
func PresignFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return apperror.Wrap(apperror.ParamInvalid, err)
		}
		var expiry time.Duration
		if v := c.Query("expiry"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				return apperror.New(apperror.ParamInvalid)
			}
			expiry = d
		}
		res, err := svc.PresignFile(c.UserContext(), id, expiry)
		if err != nil {
			return err
		}
		return ok(c, res)
	}
}
