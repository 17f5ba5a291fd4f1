package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is handed out after a successful PIN check. The terminal holds it
// for the duration of one customer interaction.
type Session struct {
	ID         uuid.UUID `json:"session_id"`
	AccountID  int64     `json:"account_id"`
	CardNumber string    `json:"card_number"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewSession(accountID int64, cardNumber string) *Session {
	return &Session{
		ID:         uuid.New(),
		AccountID:  accountID,
		CardNumber: cardNumber,
		CreatedAt:  time.Now(),
	}
}
