package server

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"blogpost/internal/models"
	"blogpost/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	defaultPaginationLimit = 20
	maxPaginationLimit     = 100
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
// The error message is derived from the parameter name (e.g. "id" -> "Invalid ID",
// "authorId" -> "Invalid author ID").
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "authorId" -> "author ID", "blogPostId" -> "blog post ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	// Split on camelCase boundary before the trailing "Id" suffix.
	if strings.HasSuffix(param, "Id") {
		prefix := param[:len(param)-2]
		words := splitCamel(prefix)
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// currentUserID returns the authenticated caller, or 0 for anonymous requests.
func currentUserID(c *fiber.Ctx) uint {
	uid, _ := c.Locals("userID").(uint)
	return uid
}

// requireCaller writes a 403 for anonymous requests before any input is parsed.
// Callers should check: if err != nil { return nil }
func requireCaller(c *fiber.Ctx) (uint, error) {
	uid := currentUserID(c)
	if uid == 0 {
		_ = models.RespondWithError(c, fiber.StatusForbidden,
			models.NewPermissionDeniedError("authentication credentials were not provided"))
		return 0, errResponseWritten
	}
	return uid, nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}

// readUpload reads the multipart file field. A missing field yields nil, nil.
// Payloads above maxBytes are rejected before being fully buffered.
func readUpload(c *fiber.Ctx, field string, maxBytes int64) (*service.UploadedFile, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, fasthttp.ErrMissingFile) {
			return nil, nil
		}
		return nil, models.NewValidationError("Invalid multipart form")
	}
	if fh.Size > maxBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", maxBytes/(1024*1024)))
	}

	f, err := fh.Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if int64(len(content)) > maxBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", maxBytes/(1024*1024)))
	}

	return &service.UploadedFile{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Content:     content,
	}, nil
}

// parseUintList accepts repeated form values and comma separated lists.
func parseUintList(values []string) ([]uint, error) {
	out := make([]uint, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.ParseUint(part, 10, 32)
			if err != nil || n == 0 {
				return nil, models.NewValidationError(fmt.Sprintf("invalid author id %q", part))
			}
			out = append(out, uint(n))
		}
	}
	return out, nil
}

// parseDate parses a YYYY-MM-DD value. Empty strings clear the date.
func parseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, models.NewValidationError("birth_date must use the YYYY-MM-DD format")
	}
	return &t, nil
}
