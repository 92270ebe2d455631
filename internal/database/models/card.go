package models

import (
	"strings"

	"github.com/google/uuid"
)

// CardStatus is stored as its ordinal so that sorting by status follows the
// workflow order rather than the alphabet.
type CardStatus int

const (
	CardStatusToDo CardStatus = iota
	CardStatusInProgress
	CardStatusDone
)

var cardStatusNames = [...]string{"ToDo", "InProgress", "Done"}

func (s CardStatus) String() string {
	if s < 0 || int(s) >= len(cardStatusNames) {
		return "Unknown"
	}
	return cardStatusNames[s]
}

func (s CardStatus) Valid() bool {
	return s >= CardStatusToDo && s <= CardStatusDone
}

// ParseCardStatus matches a status name case-insensitively.
func ParseCardStatus(s string) (CardStatus, bool) {
	for i, name := range cardStatusNames {
		if strings.EqualFold(s, name) {
			return CardStatus(i), true
		}
	}
	return 0, false
}

type Card struct {
	Base
	Name        string     `gorm:"not null" json:"name"`
	Description *string    `json:"description,omitempty"`
	Color       *string    `gorm:"type:varchar(7)" json:"color,omitempty"`
	Status      CardStatus `gorm:"not null;default:0;index" json:"status"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`

	// Relationships
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Card) TableName() string {
	return "cards"
}
