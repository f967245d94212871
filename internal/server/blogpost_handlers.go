package server

import (
	"strconv"
	"strings"

	"blogpost/internal/models"
	"blogpost/internal/service"

	"github.com/gofiber/fiber/v2"
)

// parseCreateRequest accepts a JSON body or a multipart form carrying an optional "document" file.
func (s *Server) parseCreateRequest(c *fiber.Ctx) (service.CreateBlogPostInput, error) {
	in := service.CreateBlogPostInput{UserID: currentUserID(c)}

	if !isMultipart(c) {
		var req createBlogPostRequest
		if err := c.BodyParser(&req); err != nil {
			return in, models.NewValidationError("Invalid request body")
		}
		in.Title = req.Title
		in.Text = req.Text
		in.Category = req.Category
		in.Website = req.Website
		in.AuthorIDs = req.Authors
		return in, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return in, models.NewValidationError("Invalid multipart form")
	}
	in.Title = c.FormValue("title")
	in.Text = c.FormValue("text")
	in.Website = c.FormValue("website")
	if raw := strings.TrimSpace(c.FormValue("category")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return in, models.NewValidationError("category must be between 1 and 5")
		}
		cat := models.Category(n)
		in.Category = &cat
	}
	if in.AuthorIDs, err = parseUintList(form.Value["authors"]); err != nil {
		return in, err
	}
	if in.Document, err = readUpload(c, "document", s.config.MaxUploadBytes()); err != nil {
		return in, err
	}
	return in, nil
}

// ListBlogPosts handles GET /blog/blogpost
// @Summary List visible blog posts
// @Description Posts that are not deleted, paginated
// @Tags blogposts
// @Produce json
// @Param ordering query string false "order, -order, created_at or -created_at"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} ListResponse{results=[]BlogPostResponse}
// @Failure 400 {object} models.ErrorResponse
// @Router /blog/blogpost [get]
func (s *Server) ListBlogPosts(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPaginationLimit)

	posts, total, err := s.blogService.ListVisible(c.UserContext(), c.Query("ordering"), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(ListResponse{
		Count:   total,
		Limit:   page.Limit,
		Offset:  page.Offset,
		Results: newBlogPostResponses(posts, s.now()),
	})
}

// CreateBlogPost handles POST /blog/blogpost
// @Summary Create blog post
// @Description Accepts JSON or multipart/form-data with an optional document file.
// @Description Without authors the owner is credited as the author.
// @Tags blogposts
// @Security BearerAuth
// @Accept json,mpfd
// @Produce json
// @Param request body createBlogPostRequest true "Blog post"
// @Success 201 {object} BlogPostResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /blog/blogpost [post]
func (s *Server) CreateBlogPost(c *fiber.Ctx) error {
	if _, err := requireCaller(c); err != nil {
		return nil
	}
	in, err := s.parseCreateRequest(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	post, err := s.blogService.Create(c.UserContext(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(newBlogPostResponse(post, s.now()))
}

// ListUnpublishedPosts handles GET /blog/blogpost/not_published
// @Summary List unpublished posts
// @Tags blogposts
// @Produce json
// @Success 200 {array} BlogPostResponse
// @Router /blog/blogpost/not_published [get]
func (s *Server) ListUnpublishedPosts(c *fiber.Ctx) error {
	posts, err := s.blogService.ListUnpublished(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(newBlogPostResponses(posts, s.now()))
}

// ListPublishedPosts handles GET /blog/blogpost/published_posts
// @Summary List published posts
// @Tags blogposts
// @Produce json
// @Success 200 {array} PublishedPostResponse
// @Router /blog/blogpost/published_posts [get]
func (s *Server) ListPublishedPosts(c *fiber.Ctx) error {
	posts, err := s.blogService.ListPublished(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(newPublishedPostResponses(posts, s.now()))
}

// GetBlogPost handles GET /blog/blogpost/:id
// @Summary Get blog post
// @Tags blogposts
// @Produce json
// @Param id path int true "Blog post ID"
// @Success 200 {object} BlogPostResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /blog/blogpost/{id} [get]
func (s *Server) GetBlogPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.blogService.Get(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(newBlogPostResponse(post, s.now()))
}

// UpdateBlogPost handles PATCH /blog/blogpost/:id
// @Summary Update blog post
// @Tags blogposts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Blog post ID"
// @Param request body updateBlogPostRequest true "Fields to change"
// @Success 200 {object} BlogPostResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /blog/blogpost/{id} [patch]
func (s *Server) UpdateBlogPost(c *fiber.Ctx) error {
	if _, err := requireCaller(c); err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req updateBlogPostRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.blogService.Update(c.UserContext(), currentUserID(c), id, service.UpdateBlogPostInput{
		Title:     req.Title,
		Text:      req.Text,
		Category:  req.Category,
		Website:   req.Website,
		Active:    req.Active,
		Published: req.Published,
		Archived:  req.Archived,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(newBlogPostResponse(post, s.now()))
}

// DeleteBlogPost handles DELETE /blog/blogpost/:id
// @Summary Soft delete blog post
// @Description The post is flagged deleted and hidden from every listing
// @Tags blogposts
// @Security BearerAuth
// @Param id path int true "Blog post ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /blog/blogpost/{id} [delete]
func (s *Server) DeleteBlogPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, err := s.blogService.SoftDelete(c.UserContext(), currentUserID(c), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PublishBlogPost handles POST /blog/blogpost/:id/publish
// @Summary Publish blog post
// @Tags blogposts
// @Security BearerAuth
// @Produce json
// @Param id path int true "Blog post ID"
// @Success 200 {object} BlogPostResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /blog/blogpost/{id}/publish [post]
func (s *Server) PublishBlogPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.blogService.Publish(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(newBlogPostResponse(post, s.now()))
}

// ArchiveBlogPost handles POST /blog/blogpost/:id/archive
// @Summary Archive blog post
// @Tags blogposts
// @Security BearerAuth
// @Produce json
// @Param id path int true "Blog post ID"
// @Success 200 {object} BlogPostResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /blog/blogpost/{id}/archive [post]
func (s *Server) ArchiveBlogPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.blogService.Archive(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(newBlogPostResponse(post, s.now()))
}

// AttachDocument handles PUT /blog/blogpost/:id/document
// @Summary Replace the post document
// @Tags blogposts
// @Security BearerAuth
// @Accept mpfd
// @Produce json
// @Param id path int true "Blog post ID"
// @Param document formData file true "Document"
// @Success 200 {object} BlogPostResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /blog/blogpost/{id}/document [put]
func (s *Server) AttachDocument(c *fiber.Ctx) error {
	if _, err := requireCaller(c); err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	doc, err := readUpload(c, "document", s.config.MaxUploadBytes())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if doc == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Missing document file"))
	}

	post, err := s.blogService.AttachDocument(c.UserContext(), currentUserID(c), id, doc)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(newBlogPostResponse(post, s.now()))
}

// ListPostAuthors handles GET /blog/blogpost/:id/authors
// @Summary List post authors
// @Tags blogposts
// @Produce json
// @Param id path int true "Blog post ID"
// @Success 200 {array} AuthorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /blog/blogpost/{id}/authors [get]
func (s *Server) ListPostAuthors(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	authors, err := s.blogService.ListAuthors(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(newAuthorResponses(authors, s.now()))
}

// AddPostAuthor handles POST /blog/blogpost/:id/authors
// @Summary Credit an author on a post
// @Tags blogposts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Blog post ID"
// @Param request body addAuthorRequest true "Author to add"
// @Success 200 {array} AuthorResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /blog/blogpost/{id}/authors [post]
func (s *Server) AddPostAuthor(c *fiber.Ctx) error {
	if _, err := requireCaller(c); err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req addAuthorRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	authors, err := s.blogService.AddAuthor(c.UserContext(), currentUserID(c), id, req.AuthorID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(newAuthorResponses(authors, s.now()))
}

// RemovePostAuthor handles DELETE /blog/blogpost/:id/authors/:authorId
// @Summary Remove an author from a post
// @Description The last remaining author cannot be removed
// @Tags blogposts
// @Security BearerAuth
// @Produce json
// @Param id path int true "Blog post ID"
// @Param authorId path int true "Author ID"
// @Success 200 {array} AuthorResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /blog/blogpost/{id}/authors/{authorId} [delete]
func (s *Server) RemovePostAuthor(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	authorID, err := s.parseID(c, "authorId")
	if err != nil {
		return nil
	}

	authors, err := s.blogService.RemoveAuthor(c.UserContext(), currentUserID(c), id, authorID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(newAuthorResponses(authors, s.now()))
}
