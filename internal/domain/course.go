package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

type Course struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title        string    `gorm:"index;not null" json:"title"`
	Slug         string    `gorm:"uniqueIndex;not null;size:160" json:"slug"`
	Description  string    `json:"description"`
	Difficulty   string    `gorm:"size:20;index;default:'beginner'" json:"difficulty"`
	ThumbnailKey string    `json:"thumbnail_key,omitempty"`
	IsPublished  bool      `gorm:"default:false;index" json:"is_published"`

	Videos []Video `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE;" json:"videos,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Slug == "" {
		c.Slug = Slugify(c.Title)
	}
	return nil
}

type Video struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID     uuid.UUID `gorm:"type:uuid;index;not null" json:"course_id"`
	Title        string    `gorm:"not null" json:"title"`
	Description  string    `json:"description"`
	Duration     int       `json:"duration"` // seconds
	StorageKey   string    `gorm:"uniqueIndex;not null;size:255" json:"storage_key,omitempty"`
	ThumbnailKey string    `json:"thumbnail_key,omitempty"`
	OrderIndex   int       `gorm:"index" json:"order_index"`
	IsPublished  bool      `gorm:"default:false" json:"is_published"`
	IsFree       bool      `gorm:"default:false" json:"is_free"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (v *Video) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(slug, "-")
}

const videoKeyPrefix = "videos/"

// VideoStorageKey is the bucket key a video upload with the given slug lands on.
func VideoStorageKey(slug string) string {
	return videoKeyPrefix + Slugify(slug)
}

// IsVideoKey reports whether key lives under the video upload prefix.
func IsVideoKey(key string) bool {
	return strings.HasPrefix(key, videoKeyPrefix)
}

// ImageStorageKey is the bucket key for an image of the given owner type and id.
func ImageStorageKey(kind, id string) string {
	return "images/" + Slugify(kind) + "/" + id
}
