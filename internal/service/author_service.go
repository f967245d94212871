package service

import (
	"context"
	"strings"
	"time"

	"blogpost/internal/models"
	"blogpost/internal/repository"
	"blogpost/internal/validation"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
)

// CreateAuthorInput carries the fields accepted when creating an author.
type CreateAuthorInput struct {
	FirstName string
	LastName  string
	BirthDate *time.Time
	Email     string
}

// UpdateAuthorInput holds a partial author update. Nil fields are left unchanged.
type UpdateAuthorInput struct {
	FirstName *string
	LastName  *string
	BirthDate *time.Time
	Email     *string
}

type AuthorService struct {
	repo repository.AuthorRepository
	now  func() time.Time
}

func NewAuthorService(repo repository.AuthorRepository) *AuthorService {
	return &AuthorService{repo: repo, now: time.Now}
}

func (s *AuthorService) Create(ctx context.Context, userID uint, in CreateAuthorInput) (*models.Author, error) {
	if userID == 0 {
		return nil, models.NewPermissionDeniedError("authentication credentials were not provided")
	}

	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = repository.NormalizeEmail(in.Email)

	err := ozzo.ValidateStruct(&in,
		ozzo.Field(&in.FirstName, validation.NameRules("first_name")...),
		ozzo.Field(&in.LastName, validation.NameRules("last_name")...),
		ozzo.Field(&in.BirthDate, validation.NotInFuture(s.now)),
		ozzo.Field(&in.Email, validation.OptionalEmailRules()...),
	)
	if err := validation.ToAppError(err); err != nil {
		return nil, err
	}

	author := &models.Author{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		BirthDate: in.BirthDate,
		Email:     in.Email,
	}
	if err := s.repo.Create(ctx, author); err != nil {
		return nil, err
	}
	return author, nil
}

func (s *AuthorService) Get(ctx context.Context, id uint) (*models.Author, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *AuthorService) List(ctx context.Context, limit, offset int) ([]models.Author, int64, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *AuthorService) Update(ctx context.Context, userID, id uint, in UpdateAuthorInput) (*models.Author, error) {
	if userID == 0 {
		return nil, models.NewPermissionDeniedError("authentication credentials were not provided")
	}

	changes := make(map[string]interface{})
	if in.FirstName != nil {
		v := strings.TrimSpace(*in.FirstName)
		in.FirstName = &v
		changes["first_name"] = v
	}
	if in.LastName != nil {
		v := strings.TrimSpace(*in.LastName)
		in.LastName = &v
		changes["last_name"] = v
	}
	if in.Email != nil {
		v := repository.NormalizeEmail(*in.Email)
		in.Email = &v
		changes["email"] = v
	}
	if in.BirthDate != nil {
		changes["birth_date"] = *in.BirthDate
	}

	err := ozzo.ValidateStruct(&in,
		ozzo.Field(&in.FirstName, ozzo.When(in.FirstName != nil, validation.NameRules("first_name")...)),
		ozzo.Field(&in.LastName, ozzo.When(in.LastName != nil, validation.NameRules("last_name")...)),
		ozzo.Field(&in.BirthDate, validation.NotInFuture(s.now)),
		ozzo.Field(&in.Email, validation.OptionalEmailRules()...),
	)
	if err := validation.ToAppError(err); err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, id, changes)
}
