package entity

type Dataset struct {
	ID           string `gorm:"primaryKey;column:id"`
	OriginalName string
	StoredPath   string
	UploadedAt   int64 `gorm:"autoUpdateTime:false"`
}
