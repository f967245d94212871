package server

import (
	"blogpost/internal/models"
	"blogpost/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetImages handles GET /blog/blogpost/:id/images
// @Summary List post images
// @Tags images
// @Produce json
// @Param id path int true "Blog post ID"
// @Success 200 {array} ImageResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /blog/blogpost/{id}/images [get]
func (s *Server) GetImages(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	images, err := s.imageService.List(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(newImageResponses(images))
}

// UploadImage handles POST /blog/blogpost/:id/images
// @Summary Attach an image to a post
// @Description JPEG, PNG, GIF or WebP. A webp thumbnail is generated.
// @Tags images
// @Security BearerAuth
// @Accept mpfd
// @Produce json
// @Param id path int true "Blog post ID"
// @Param image formData file true "Image"
// @Success 201 {object} ImageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /blog/blogpost/{id}/images [post]
func (s *Server) UploadImage(c *fiber.Ctx) error {
	if _, err := requireCaller(c); err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	file, err := readUpload(c, "image", s.config.MaxUploadBytes())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if file == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}

	img, err := s.imageService.Attach(c.UserContext(), service.UploadImageInput{
		UserID:      currentUserID(c),
		PostID:      id,
		Filename:    file.Filename,
		ContentType: file.ContentType,
		Content:     file.Content,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(newImageResponse(img))
}
