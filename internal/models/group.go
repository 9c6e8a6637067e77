package models

import "time"

// Group represents a user group (event circles, chat groups and the like).
type Group struct {
	BaseModel
	Name        string `gorm:"type:varchar(100);not null" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	AvatarURL   string `gorm:"type:varchar(255)" json:"avatarUrl,omitempty"`
	OwnerID     uint   `gorm:"not null" json:"ownerId"`
	MemberCount int    `gorm:"default:0" json:"memberCount"`

	Owner   User          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members []GroupMember `gorm:"foreignKey:GroupID" json:"members,omitempty"`
}

// TableName sets the table name for the Group model.
func (Group) TableName() string {
	return "groups"
}

// GroupMemberRole defines a user's role inside a group.
type GroupMemberRole string

const (
	AdminRole  GroupMemberRole = "admin"
	MemberRole GroupMemberRole = "member"
)

// GroupMember links a user to a group and defines their role.
type GroupMember struct {
	GroupID  uint            `gorm:"primaryKey;autoIncrement:false" json:"groupId"`
	UserID   uint            `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	Role     GroupMemberRole `gorm:"type:varchar(20);default:'member'" json:"role"`
	JoinedAt time.Time       `json:"joinedAt"`

	User  User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Group Group `gorm:"foreignKey:GroupID" json:"group,omitempty"`
}

// TableName sets the table name for the GroupMember model.
func (GroupMember) TableName() string {
	return "group_members"
}
