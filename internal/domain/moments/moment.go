package moments

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

func (k MediaKind) Valid() bool { return k == MediaImage || k == MediaVideo }

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

const (
	// MaxExtractedTextRunes bounds ExtractedText before it is stored.
	MaxExtractedTextRunes = 500
	// NoContentPlaceholder is stored when nothing could be extracted.
	NoContentPlaceholder = "No content could be extracted from this media"
	MinSentimentScore    = 1
	MaxSentimentScore    = 100
)

// Moment is a worker-submitted photo or video. ExtractedText and
// SentimentScore stay nil until the analysis pipeline has run.
type Moment struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WorkerID             uuid.UUID `gorm:"type:uuid;not null;index" json:"worker_id"`
	MediaURL             string    `gorm:"column:media_url;not null" json:"media_url"`
	MediaPath            string    `gorm:"column:media_path;not null" json:"-"`
	MediaKind            MediaKind `gorm:"column:media_kind;not null" json:"media_kind"`
	SubmitterName        string    `gorm:"column:submitter_name" json:"submitter_name,omitempty"`
	ExtractedText        *string   `gorm:"column:extracted_text;type:text" json:"extracted_text"`
	SentimentScore       *int      `gorm:"column:sentiment_score" json:"sentiment_score"`
	Status               string    `gorm:"column:status;not null;index" json:"status"`
	ProcessedImmediately bool      `gorm:"column:processed_immediately;not null;default:false" json:"processed_immediately"`
	CreatedAt            time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt            time.Time `gorm:"not null" json:"updated_at"`
}

func (Moment) TableName() string { return "moment" }

func (m *Moment) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Status == "" {
		m.Status = StatusPending
	}
	return nil
}

// TruncateText cuts s to MaxExtractedTextRunes runes.
func TruncateText(s string) string {
	r := []rune(s)
	if len(r) <= MaxExtractedTextRunes {
		return s
	}
	return string(r[:MaxExtractedTextRunes])
}

// ClampScore forces a raw score into [MinSentimentScore, MaxSentimentScore].
func ClampScore(score int) int {
	if score < MinSentimentScore {
		return MinSentimentScore
	}
	if score > MaxSentimentScore {
		return MaxSentimentScore
	}
	return score
}
