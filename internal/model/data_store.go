package model

import "time"

// FileType is the inferred media class of an uploaded file.
type FileType string

const (
	FileTypePhoto FileType = "photo"
	FileTypeVideo FileType = "video"
)

// Valid reports whether t is photo or video.
func (t FileType) Valid() bool {
	return t == FileTypePhoto || t == FileTypeVideo
}

// DataStore is a file uploaded by a user. FileType, FileFormat and Size are
// filled in by the server at upload time.
type DataStore struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user" gorm:"not null;index"`
	Name       string    `json:"name" gorm:"size:255;not null"`
	File       string    `json:"file" gorm:"size:512;not null"`
	FileType   FileType  `json:"file_type,omitempty" gorm:"size:10;index"`
	FileFormat string    `json:"file_format,omitempty" gorm:"size:10"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at" gorm:"autoCreateTime;index"`
	URL        string    `json:"url,omitempty" gorm:"-"`

	// Relations
	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
