package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestAuthor_Age(t *testing.T) {
	now := time.Date(2025, time.October, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		birth *time.Time
		want  *int
	}{
		{"no birth date", nil, nil},
		{"birthday today", date(2000, time.October, 10), intPtr(25)},
		{"birthday tomorrow", date(2000, time.October, 11), intPtr(24)},
		{"birthday passed this year", date(2000, time.March, 1), intPtr(25)},
		{"leap day birth", date(2004, time.February, 29), intPtr(21)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Author{FirstName: "Mariam", LastName: "Kipshidze", BirthDate: tt.birth}
			got := a.Age(now)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func intPtr(v int) *int { return &v }

func TestAuthor_String(t *testing.T) {
	a := &Author{FirstName: "Ana", LastName: "Smith"}
	assert.Equal(t, "Ana - Smith", a.String())
}

func TestAuthorFromOwner(t *testing.T) {
	a := AuthorFromOwner(&User{FullName: "Nino Beridze Jr", Email: "nino@example.com"})
	assert.Equal(t, "Nino", a.FirstName)
	assert.Equal(t, "Beridze Jr", a.LastName)
	assert.Equal(t, "nino@example.com", a.Email)

	a = AuthorFromOwner(&User{Email: "solo@example.com"})
	assert.Equal(t, "solo", a.FirstName)
	assert.Equal(t, "", a.LastName)
}

func TestBlogPost_String(t *testing.T) {
	p := &BlogPost{Title: "My First Post", Text: "Hello world!"}
	assert.Equal(t, "My First Post", p.String())
}

func TestCategory(t *testing.T) {
	for _, c := range Categories() {
		assert.True(t, c.Valid(), c.String())
	}
	assert.False(t, Category(0).Valid())
	assert.False(t, Category(6).Valid())
	assert.Equal(t, "Technology", CategoryTechnology.String())
	assert.Equal(t, "Unknown", Category(42).String())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewNotFoundError("BlogPost", 1), fiber.StatusNotFound},
		{NewValidationError("bad"), fiber.StatusBadRequest},
		{NewPermissionDeniedError("no"), fiber.StatusForbidden},
		{NewUnauthorizedError("who"), fiber.StatusUnauthorized},
		{NewConflictError("dup"), fiber.StatusConflict},
		{NewInternalError(errors.New("boom")), fiber.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", NewNotFoundError("Author", 2)), fiber.StatusNotFound},
		{errors.New("plain"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("ctx: %w", NewValidationError("dup"))
	assert.True(t, IsCode(err, CodeValidation))
	assert.False(t, IsCode(err, CodeNotFound))
	assert.False(t, IsCode(nil, CodeNotFound))
}
