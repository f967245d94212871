package server

import (
	"errors"

	"blogpost/internal/models"
	"blogpost/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// GetMedia handles GET /media/*
// @Summary Download a stored document or image
// @Tags media
// @Produce octet-stream
// @Param key path string true "Object key"
// @Success 200 {file} binary
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /media/{key} [get]
func (s *Server) GetMedia(c *fiber.Ctx) error {
	key := c.Params("*")
	if err := storage.ValidateKey(key); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid media key"))
	}

	body, info, err := s.store.Download(c.UserContext(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Media", key))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = fiber.MIMEOctetStream
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	c.Set("X-Content-Type-Options", "nosniff")

	size := -1
	if info.Size > 0 {
		size = int(info.Size)
	}
	// fasthttp closes body once the response is written.
	return c.SendStream(body, size)
}
