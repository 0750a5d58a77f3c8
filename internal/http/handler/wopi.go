package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"wopihost/internal/http/middleware"
	"wopihost/internal/service"
)

// documentID copies the route param out of fiber's reusable buffer.
func documentID(c *fiber.Ctx) string {
	return utils.CopyString(c.Params("id"))
}

// respondError maps a service error to a status and logs unexpected causes.
func respondError(c *fiber.Ctx, log *zap.Logger, op, id string, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "File not found")
	case errors.Is(err, service.ErrEmptyContent):
		return writeError(c, fiber.StatusBadRequest, "NO_CONTENT", "No file content provided")
	}

	log.Error(op+"_failed",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("document_id", id),
		zap.Error(err),
	)
	if errors.Is(err, service.ErrStorageWrite) {
		return writeError(c, fiber.StatusInternalServerError, "WRITE_FAILED", "Error saving file")
	}
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
}

// CheckFileInfo godoc
// @Summary WOPI CheckFileInfo
// @Description Returns the name and size of the document and the caller's permissions.
// @Tags wopi
// @Produce json
// @Param id path string true "Document id"
// @Success 200 {object} model.FileInfo
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /wopi/files/{id} [get]
func CheckFileInfo(svc service.WopiService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := documentID(c)
		info, err := svc.CheckFileInfo(c.UserContext(), id)
		if err != nil {
			return respondError(c, log, "check_file_info", id, err)
		}
		return c.JSON(info)
	}
}

// GetFile godoc
// @Summary WOPI GetFile
// @Description Returns the full document content in a single response.
// @Tags wopi
// @Produce octet-stream
// @Param id path string true "Document id"
// @Success 200 {file} binary
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /wopi/files/{id}/contents [get]
func GetFile(svc service.WopiService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := documentID(c)
		data, err := svc.GetFile(c.UserContext(), id)
		if err != nil {
			return respondError(c, log, "get_file", id, err)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
		return c.Send(data)
	}
}

// PutFile godoc
// @Summary WOPI PutFile
// @Description Replaces the content of an existing document with the request body.
// @Tags wopi
// @Accept octet-stream
// @Param id path string true "Document id"
// @Param body body string true "New document content"
// @Success 200
// @Failure 400 {string} string
// @Failure 404 {string} string
// @Failure 413 {string} string
// @Failure 500 {string} string
// @Router /wopi/files/{id}/contents [post]
func PutFile(svc service.WopiService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := documentID(c)
		body := c.Body()
		if err := svc.PutFile(c.UserContext(), id, body); err != nil {
			return respondError(c, log, "put_file", id, err)
		}
		log.Info("put_file",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("document_id", id),
			zap.Int("size", len(body)),
		)
		return c.SendStatus(fiber.StatusOK)
	}
}
