package models

import (
	"strings"
	"time"
)

// Author is a named person credited on blog posts.
type Author struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	FirstName string     `gorm:"size:100;not null" json:"first_name"`
	LastName  string     `gorm:"size:100;not null" json:"last_name"`
	BirthDate *time.Time `gorm:"type:date" json:"birth_date,omitempty"`
	Email     string     `gorm:"size:254" json:"email,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Age returns the number of whole years between the birth date and now.
// It returns nil when no birth date is recorded.
func (a *Author) Age(now time.Time) *int {
	if a.BirthDate == nil {
		return nil
	}
	b := a.BirthDate.UTC()
	now = now.UTC()

	years := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		years--
	}
	return &years
}

// String renders the author as "First - Last".
func (a *Author) String() string {
	return strings.TrimSpace(a.FirstName) + " - " + strings.TrimSpace(a.LastName)
}

// AuthorFromOwner derives the default author credited on a post created without explicit authors.
// full_name is split on the first space; a single word becomes the first name.
func AuthorFromOwner(owner *User) *Author {
	name := strings.TrimSpace(owner.FullName)
	if name == "" {
		name, _, _ = strings.Cut(owner.Email, "@")
	}
	first, last, _ := strings.Cut(name, " ")
	return &Author{
		FirstName: strings.TrimSpace(first),
		LastName:  strings.TrimSpace(last),
		Email:     owner.Email,
	}
}
