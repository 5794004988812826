package domain

import (
	"time"

	"github.com/google/uuid"
)

// CompletionThreshold is the watched percentage at which a video counts as completed.
const CompletionThreshold = 90

type Enrollment struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	CourseID  uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"course_id"`
	CreatedAt time.Time `json:"created_at"`
}

type WatchProgress struct {
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	VideoID        uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"video_id"`
	SecondsWatched int       `json:"seconds_watched"`
	Percent        int       `json:"percent"`
	Completed      bool      `json:"completed"`
	UpdatedAt      time.Time `gorm:"index" json:"updated_at"`
}

type Like struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	VideoID   uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"video_id"`
	CreatedAt time.Time `json:"created_at"`
}

// WatchPercent converts a playback position into a 0..100 percentage of duration.
func WatchPercent(seconds, duration int) int {
	if duration <= 0 || seconds <= 0 {
		return 0
	}
	if seconds >= duration {
		return 100
	}
	return seconds * 100 / duration
}
