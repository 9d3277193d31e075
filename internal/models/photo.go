package models

import "time"

// Photo is an uploaded profile photo. Objects are stored private; access by a
// counterpart is granted through signed URLs once the match reaches the
// photo_approved step.
type Photo struct {
	ID         string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID     string `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	ObjectPath string `gorm:"column:object_path;type:text" json:"-"`
	FileName   string `gorm:"column:file_name;type:text" json:"file_name"`
	FileSize   int    `gorm:"column:file_size;type:integer" json:"file_size"`
	MimeType   string `gorm:"column:mime_type;type:text" json:"mime_type"`

	UploadAt time.Time `gorm:"column:upload_at;type:timestamptz" json:"upload_at"`
}

func (Photo) TableName() string { return "photos" }
