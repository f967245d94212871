package server

import (
	"time"

	"blogpost/internal/models"
)

const (
	dateLayout  = "2006-01-02"
	mediaPrefix = "/media/"
)

// ListResponse is the paginated list envelope.
type ListResponse struct {
	Count   int64       `json:"count"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
	Results interface{} `json:"results"`
}

// AuthorResponse is the author representation, with age computed at response time.
type AuthorResponse struct {
	ID          uint      `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	BirthDate   *string   `json:"birth_date"`
	Email       string    `json:"email"`
	Age         *int      `json:"age"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newAuthorResponse(a *models.Author, now time.Time) AuthorResponse {
	resp := AuthorResponse{
		ID:          a.ID,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Email:       a.Email,
		Age:         a.Age(now),
		DisplayName: a.String(),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if a.BirthDate != nil {
		d := a.BirthDate.Format(dateLayout)
		resp.BirthDate = &d
	}
	return resp
}

func newAuthorResponses(authors []models.Author, now time.Time) []AuthorResponse {
	out := make([]AuthorResponse, 0, len(authors))
	for i := range authors {
		out = append(out, newAuthorResponse(&authors[i], now))
	}
	return out
}

// DocumentResponse describes an attached document. URL points at the media route.
type DocumentResponse struct {
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

func newDocumentResponse(d models.Document) *DocumentResponse {
	if d.IsZero() {
		return nil
	}
	return &DocumentResponse{
		URL:         mediaPrefix + d.Key,
		Filename:    d.Filename,
		ContentType: d.ContentType,
		Size:        d.Size,
	}
}

// ImageResponse is one stored post image and its webp thumbnail.
type ImageResponse struct {
	ID               uint      `json:"id"`
	BlogPostID       uint      `json:"blog_post_id"`
	URL              string    `json:"url"`
	ThumbnailURL     string    `json:"thumbnail_url,omitempty"`
	OriginalFilename string    `json:"original_filename"`
	ContentType      string    `json:"content_type"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	SizeBytes        int64     `json:"size_bytes"`
	CreatedAt        time.Time `json:"created_at"`
}

func newImageResponse(img *models.BlogPostImage) ImageResponse {
	resp := ImageResponse{
		ID:               img.ID,
		BlogPostID:       img.BlogPostID,
		URL:              mediaPrefix + img.Key,
		OriginalFilename: img.OriginalFilename,
		ContentType:      img.ContentType,
		Width:            img.Width,
		Height:           img.Height,
		SizeBytes:        img.SizeBytes,
		CreatedAt:        img.CreatedAt,
	}
	if img.ThumbnailKey != "" {
		resp.ThumbnailURL = mediaPrefix + img.ThumbnailKey
	}
	return resp
}

func newImageResponses(images []models.BlogPostImage) []ImageResponse {
	out := make([]ImageResponse, 0, len(images))
	for i := range images {
		out = append(out, newImageResponse(&images[i]))
	}
	return out
}

// postFields are shared by every post representation.
type postFields struct {
	ID           uint              `json:"id"`
	Title        string            `json:"title"`
	Text         string            `json:"text"`
	OwnerID      uint              `json:"owner_id"`
	Authors      []AuthorResponse  `json:"authors"`
	Category     models.Category   `json:"category"`
	CategoryName string            `json:"category_name"`
	Website      string            `json:"website"`
	Order        int64             `json:"order"`
	Document     *DocumentResponse `json:"document"`
	Active       bool              `json:"active"`
	Archived     bool              `json:"archived"`
	Deleted      bool              `json:"deleted"`
	DeletedAt    *time.Time        `json:"deleted_at"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func newPostFields(p *models.BlogPost, now time.Time) postFields {
	return postFields{
		ID:           p.ID,
		Title:        p.Title,
		Text:         p.Text,
		OwnerID:      p.OwnerID,
		Authors:      newAuthorResponses(p.Authors, now),
		Category:     p.Category,
		CategoryName: p.Category.String(),
		Website:      p.Website,
		Order:        p.Order,
		Document:     newDocumentResponse(p.Document),
		Active:       p.Active,
		Archived:     p.Archived,
		Deleted:      p.Deleted,
		DeletedAt:    p.DeletedAt,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// BlogPostResponse is the detail and list representation of a post.
type BlogPostResponse struct {
	postFields
	Published bool            `json:"published"`
	Images    []ImageResponse `json:"images,omitempty"`
}

func newBlogPostResponse(p *models.BlogPost, now time.Time) BlogPostResponse {
	return BlogPostResponse{
		postFields: newPostFields(p, now),
		Published:  p.Published,
		Images:     newImageResponses(p.Images),
	}
}

func newBlogPostResponses(posts []models.BlogPost, now time.Time) []BlogPostResponse {
	out := make([]BlogPostResponse, 0, len(posts))
	for i := range posts {
		out = append(out, newBlogPostResponse(&posts[i], now))
	}
	return out
}

// PublishedPostResponse is the published_posts representation. It omits the published flag.
type PublishedPostResponse struct {
	postFields
}

func newPublishedPostResponses(posts []models.BlogPost, now time.Time) []PublishedPostResponse {
	out := make([]PublishedPostResponse, 0, len(posts))
	for i := range posts {
		out = append(out, PublishedPostResponse{postFields: newPostFields(&posts[i], now)})
	}
	return out
}

type createBlogPostRequest struct {
	Title    string           `json:"title" form:"title"`
	Text     string           `json:"text" form:"text"`
	Category *models.Category `json:"category" form:"category"`
	Website  string           `json:"website" form:"website"`
	Authors  []uint           `json:"authors" form:"authors"`
}

type updateBlogPostRequest struct {
	Title     *string          `json:"title"`
	Text      *string          `json:"text"`
	Category  *models.Category `json:"category"`
	Website   *string          `json:"website"`
	Active    *bool            `json:"active"`
	Published *bool            `json:"published"`
	Archived  *bool            `json:"archived"`
}

type authorRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	BirthDate *string `json:"birth_date"`
	Email     *string `json:"email"`
}

type addAuthorRequest struct {
	AuthorID uint `json:"author_id"`
}
