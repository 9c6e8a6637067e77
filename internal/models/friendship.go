package models

// Friendship represents an established friendship between two users.
// To avoid duplicates and simplify queries, UserID1 is always less than UserID2.
type Friendship struct {
	BaseModel
	UserID1 uint `gorm:"not null;uniqueIndex:idx_friendship_users"`
	User1   User `gorm:"foreignKey:UserID1"`
	UserID2 uint `gorm:"not null;uniqueIndex:idx_friendship_users"`
	User2   User `gorm:"foreignKey:UserID2"`
}

// EnsureCanonicalOrder sets UserID1 to the smaller ID and UserID2 to the larger ID.
// Must be called before creating a Friendship record.
func (f *Friendship) EnsureCanonicalOrder() {
	if f.UserID1 > f.UserID2 {
		f.UserID1, f.UserID2 = f.UserID2, f.UserID1
	}
}
