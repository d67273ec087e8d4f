package models

type DiaryEntry struct {
	BaseModel

	AuthorID uint   `json:"author" gorm:"not null;index"`
	Title    string `json:"title" gorm:"size:50;not null"`
	Body     string `json:"body" gorm:"type:text;not null"`
}
