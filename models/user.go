package models

import (
	"time"

	"eventa/store"
)

const (
	RoleVoter     = "voter"
	RoleOrganizer = "organizer"
	RoleAdmin     = "admin"
)

type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`   // voter, organizer, admin
	Status     string    `json:"status"` // active, suspended, pending
	ProfilePic string    `json:"profile_pic,omitempty"`
	Created    time.Time `json:"created"`
}

func UserFromRow(r store.Row) User {
	return User{
		ID:         rowString(r, "id"),
		Name:       rowString(r, "name"),
		Email:      rowString(r, "email"),
		Role:       rowString(r, "role"),
		Status:     rowString(r, "status"),
		ProfilePic: rowString(r, "profile_pic"),
		Created:    rowTime(r, "created"),
	}
}
