package server

import (
	"blogpost/internal/models"
	"blogpost/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListAuthors handles GET /blog/author
// @Summary List authors
// @Tags authors
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} ListResponse{results=[]AuthorResponse}
// @Router /blog/author [get]
func (s *Server) ListAuthors(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPaginationLimit)

	authors, total, err := s.authorService.List(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(ListResponse{
		Count:   total,
		Limit:   page.Limit,
		Offset:  page.Offset,
		Results: newAuthorResponses(authors, s.now()),
	})
}

// CreateAuthor handles POST /blog/author
// @Summary Create author
// @Tags authors
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body authorRequest true "Author"
// @Success 201 {object} AuthorResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /blog/author [post]
func (s *Server) CreateAuthor(c *fiber.Ctx) error {
	if _, err := requireCaller(c); err != nil {
		return nil
	}
	var req authorRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	in := service.CreateAuthorInput{}
	if req.FirstName != nil {
		in.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		in.LastName = *req.LastName
	}
	if req.Email != nil {
		in.Email = *req.Email
	}
	if req.BirthDate != nil {
		d, err := parseDate(*req.BirthDate)
		if err != nil {
			return models.RespondWithAppError(c, err)
		}
		in.BirthDate = d
	}

	author, err := s.authorService.Create(c.UserContext(), currentUserID(c), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(newAuthorResponse(author, s.now()))
}

// GetAuthor handles GET /blog/author/:id
// @Summary Get author
// @Description Includes the computed age and display name
// @Tags authors
// @Produce json
// @Param id path int true "Author ID"
// @Success 200 {object} AuthorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /blog/author/{id} [get]
func (s *Server) GetAuthor(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	author, err := s.authorService.Get(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(newAuthorResponse(author, s.now()))
}

// UpdateAuthor handles PATCH /blog/author/:id
// @Summary Update author
// @Tags authors
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Author ID"
// @Param request body authorRequest true "Fields to change"
// @Success 200 {object} AuthorResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /blog/author/{id} [patch]
func (s *Server) UpdateAuthor(c *fiber.Ctx) error {
	if _, err := requireCaller(c); err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req authorRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	in := service.UpdateAuthorInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	}
	if req.BirthDate != nil {
		d, err := parseDate(*req.BirthDate)
		if err != nil {
			return models.RespondWithAppError(c, err)
		}
		in.BirthDate = d
	}

	author, err := s.authorService.Update(c.UserContext(), currentUserID(c), id, in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(newAuthorResponse(author, s.now()))
}
