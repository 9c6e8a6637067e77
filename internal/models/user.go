package models

// User represents an account in the system.
type User struct {
	BaseModel
	Username     string `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"`
	Email        string `gorm:"type:varchar(100);uniqueIndex" json:"email,omitempty"`
	Name         string `gorm:"type:varchar(100)" json:"name,omitempty"`
	AvatarURL    string `gorm:"type:varchar(255)" json:"avatarUrl,omitempty"`
	ProfilePhoto string `gorm:"type:varchar(255)" json:"profilePhoto,omitempty"`
	Bio          string `gorm:"type:text" json:"bio,omitempty"`
}

// UserBasicInfo holds minimal public information about a user, used
// wherever a sender/actor needs to be displayed next to an item.
type UserBasicInfo struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// BasicInfo projects the user onto its public display fields.
// The avatar falls back from profile photo to avatar URL to empty.
func (u *User) BasicInfo() *UserBasicInfo {
	avatar := u.ProfilePhoto
	if avatar == "" {
		avatar = u.AvatarURL
	}
	return &UserBasicInfo{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		AvatarURL: avatar,
	}
}

// TableName sets the table name for the User model.
func (User) TableName() string {
	return "users"
}
