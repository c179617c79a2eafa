package model

import "time"

type User struct {
	ID               string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username         string     `json:"username" gorm:"uniqueIndex;not null"`
	Role             string     `json:"role"`
	Email            string     `json:"email"`
	Department       string     `json:"department"`
	Title            string     `json:"title"`
	AccountType      string     `json:"account_type"`
	AccountExpiresAt *time.Time `json:"account_expires_at,omitempty"`
	IsActive         bool       `json:"is_active" gorm:"not null"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type Group struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `json:"name" gorm:"uniqueIndex;not null"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GroupMembership is one row of the user/group join table.
type GroupMembership struct {
	UserID    string    `json:"user_id" gorm:"primaryKey;type:varchar(36)"`
	GroupID   string    `json:"group_id" gorm:"primaryKey;type:varchar(36);index"`
	CreatedAt time.Time `json:"created_at"`

	User  *User  `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Group *Group `json:"-" gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
}

func (GroupMembership) TableName() string {
	return "user_groups"
}
