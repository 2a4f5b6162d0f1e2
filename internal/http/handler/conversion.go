package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"storyforge/internal/service"
	"storyforge/internal/storage"
)

type modelsResponse struct {
	Models []string `json:"models"`
	Count  int      `json:"count"`
}

// ListModels returns the generateContent-capable models of the provider.
//
// @Summary List available models
// @Tags models
// @Produce json
// @Param refresh query bool false "force rediscovery"
// @Success 200 {object} modelsResponse
// @Failure 500 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Router /api/list-models [get]
func ListModels(svc service.ConversionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		models, err := svc.ListModels(c.UserContext(), c.QueryBool("refresh", false))
		if err != nil {
			if errors.Is(err, service.ErrAPIKeyMissing) {
				return writeError(c, fiber.StatusInternalServerError, "API_KEY_MISSING", "GEMINI_API_KEY not configured")
			}
			return writeError(c, fiber.StatusBadGateway, "UPSTREAM_ERROR", "failed to list models")
		}
		return c.JSON(modelsResponse{Models: models, Count: len(models)})
	}
}

// ConvertPPT turns an uploaded deck into a story payload. The content type
// is checked by middleware before this handler runs. Model failures still
// answer 200 with the local fallback.
//
// @Summary Convert a slide deck into a gamified story
// @Tags conversions
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PowerPoint deck (.ppt, .pptx)"
// @Param fileName formData string false "display name used for the title"
// @Success 200 {object} model.StoryPayload
// @Failure 400 {object} errorPayload
// @Failure 413 {object} errorPayload
// @Router /api/convert-ppt [post]
func ConvertPPT(svc service.ConversionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		payload, err := svc.Convert(c.UserContext(), service.ConvertInput{
			Reader:      f,
			Filename:    fh.Filename,
			DisplayName: c.FormValue("fileName"),
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Size:        fh.Size,
		})
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(payload)
	}
}

// ListConversions returns conversion history with limit & offset.
//
// @Summary List past conversions
// @Tags conversions
// @Produce json
// @Param limit query int false "page size" default(10)
// @Param offset query int false "offset" default(0)
// @Success 200 {object} service.ConversionListResult
// @Failure 400 {object} errorPayload
// @Failure 501 {object} errorPayload
// @Router /api/conversions [get]
func ListConversions(svc service.ConversionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetConversion returns one history record.
//
// @Summary Get a conversion
// @Tags conversions
// @Produce json
// @Param id path string true "conversion id"
// @Success 200 {object} service.ConversionDetail
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/conversions/{id} [get]
func GetConversion(svc service.ConversionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		res, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// DownloadDeck streams the archived deck of a conversion.
//
// @Summary Download the archived deck
// @Tags conversions
// @Produce octet-stream
// @Param id path string true "conversion id"
// @Success 200 {file} file
// @Failure 404 {object} errorPayload
// @Router /api/conversions/{id}/deck [get]
func DownloadDeck(svc service.ConversionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rc, info, err := svc.OpenDeck(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}

		ct := info.ContentType
		if ct == "" {
			ct = fiber.MIMEOctetStream
		}
		c.Set(fiber.HeaderContentType, ct)
		if name := info.Metadata[storage.MetaOriginalFilename]; name != "" {
			c.Attachment(name)
		}
		// fasthttp closes rc once the body is written.
		return c.SendStream(rc, int(info.Size))
	}
}

// DeleteConversion removes a history record and its archived deck.
//
// @Summary Delete a conversion
// @Tags conversions
// @Param id path string true "conversion id"
// @Success 204
// @Failure 404 {object} errorPayload
// @Router /api/conversions/{id} [delete]
func DeleteConversion(svc service.ConversionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// serviceError translates service sentinels into the error envelope.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "conversion not found")
	case errors.Is(err, service.ErrDeckNotArchived):
		return writeError(c, fiber.StatusNotFound, "DECK_NOT_ARCHIVED", "deck was not archived")
	case errors.Is(err, service.ErrHistoryDisabled):
		return writeError(c, fiber.StatusNotImplemented, "HISTORY_DISABLED", "conversion history is not configured")
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "id is required")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
