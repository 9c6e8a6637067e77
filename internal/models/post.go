package models

// Post is a minimal post record. Interactions (likes, comments, tags,
// mentions) reference a post; the notification feed only needs its ID
// and author, not the full content pipeline.
type Post struct {
	BaseModel
	AuthorID uint   `gorm:"not null;index" json:"authorId"`
	Caption  string `gorm:"type:text" json:"caption,omitempty"`
	ImageURL string `gorm:"type:varchar(255)" json:"imageUrl,omitempty"`

	Author User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

// TableName sets the table name for the Post model.
func (Post) TableName() string {
	return "posts"
}
