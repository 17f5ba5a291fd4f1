package handler

import (
	"encoding/json"
	"net/http"

	"atm-ledger/internal/auth"
	"atm-ledger/internal/errors"
)

type SessionHandler struct {
	guard *auth.Guard
}

func NewSessionHandler(guard *auth.Guard) *SessionHandler {
	return &SessionHandler{
		guard: guard,
	}
}

type AuthenticateRequest struct {
	CardNumber string `json:"card_number"`
	PIN        string `json:"pin"`
}

// Authenticate opens a terminal session for a card. Failed attempts consume
// the retry budget; the third consecutive failure locks the card.
func (h *SessionHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req AuthenticateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body"))
		return
	}

	session, err := h.guard.Authenticate(req.CardNumber, req.PIN)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}
