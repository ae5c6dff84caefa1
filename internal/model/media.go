package model

type MediaKind string

const (
	MediaAvatar    MediaKind = "avatar"
	MediaHighlight MediaKind = "highlight"
)

// Media records an uploaded file (avatar image or training highlight video)
// together with probed video metadata where applicable.
// swagger:model Media
type Media struct {
	UUIDBase
	UserID      uint      `gorm:"index" json:"userId"`
	Kind        MediaKind `gorm:"size:20" json:"kind"`
	FileName    string    `gorm:"size:255" json:"fileName"`
	URL         string    `gorm:"size:255" json:"url"`
	ContentType string    `gorm:"size:100" json:"contentType"`
	Thumbnail   string    `gorm:"size:255" json:"thumbnail,omitempty"`
	Size        int64     `json:"size"`
	Duration    float64   `json:"duration,omitempty"` // seconds, videos only
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
}

func (Media) TableName() string {
	return "media"
}
