package model

import (
	"strings"

	"telegram-relay-bot/internal/domain"
)

// Sender identifies the Telegram account behind an inbound event.
// ID is the only field used for routing; the rest is display metadata.
type Sender struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
}

func NewSender(id int64, firstName, lastName, username string) (*Sender, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Sender{
		ID:        id,
		FirstName: firstName,
		LastName:  lastName,
		Username:  username,
	}, nil
}

// DisplayName joins first and last name, falling back to the username.
func (s Sender) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(s.FirstName) + " " + strings.TrimSpace(s.LastName))
	if name == "" {
		name = s.Username
	}
	return name
}

func (s Sender) IsZero() bool { return s.ID == 0 }
