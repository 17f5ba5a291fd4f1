package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"atm-ledger/internal/domain"
	"atm-ledger/internal/errors"
	"atm-ledger/internal/service"
)

type TransactionHandler struct {
	transactionService *service.TransactionService
}

func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

type WithdrawRequest struct {
	Currency      string `json:"currency"`
	Amount        int64  `json:"amount"`
	AcceptRounded bool   `json:"accept_rounded,omitempty"`
}

// Withdraw dispenses cash from the account in the path. A response with
// status confirmation_required carries the rounded offer; the terminal
// resubmits with accept_rounded to take it, or simply does not, which
// leaves the balance untouched.
func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromPath(w, r)
	if !ok {
		return
	}

	var req WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body"))
		return
	}

	currency, err := parseCurrency(w, req.Currency)
	if err != nil {
		return
	}

	result, err := h.transactionService.Withdraw(&service.WithdrawRequest{
		AccountID:     accountID,
		Currency:      currency,
		Amount:        req.Amount,
		AcceptRounded: req.AcceptRounded,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if result.Status == service.StatusConfirmationRequired {
		writeJSON(w, http.StatusOK, result)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

type DepositRequest struct {
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
}

func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromPath(w, r)
	if !ok {
		return
	}

	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body"))
		return
	}

	currency, err := parseCurrency(w, req.Currency)
	if err != nil {
		return
	}

	result, err := h.transactionService.Deposit(&service.DepositRequest{
		AccountID: accountID,
		Currency:  currency,
		Amount:    req.Amount,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

type TransferRequest struct {
	DestinationCard string `json:"destination_card"`
	Currency        string `json:"currency"`
	Amount          string `json:"amount"`
}

func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromPath(w, r)
	if !ok {
		return
	}

	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body"))
		return
	}

	currency, err := parseCurrency(w, req.Currency)
	if err != nil {
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidAmount, "invalid amount format").WithDetails(err.Error()))
		return
	}

	result, err := h.transactionService.Transfer(&service.TransferRequest{
		AccountID:       accountID,
		DestinationCard: req.DestinationCard,
		Currency:        currency,
		Amount:          amount,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// parseCurrency normalizes the request's currency field, writing the error
// response itself on failure.
func parseCurrency(w http.ResponseWriter, raw string) (domain.Currency, error) {
	currency, err := domain.ParseCurrency(raw)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "unknown currency").WithDetails(err.Error()))
		return "", err
	}
	return currency, nil
}
