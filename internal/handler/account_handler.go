package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"atm-ledger/internal/domain"
	"atm-ledger/internal/errors"
	"atm-ledger/internal/service"
)

type AccountHandler struct {
	accountService *service.AccountService
}

func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

type CreateAccountRequest struct {
	CardNumber string            `json:"card_number"`
	PINCode    string            `json:"pin_code"`
	Balances   map[string]string `json:"balances"`
}

type AccountResponse struct {
	AccountID  int64             `json:"account_id"`
	CardNumber string            `json:"card_number"`
	LockState  domain.LockState  `json:"lock_state"`
	Balances   map[string]string `json:"balances"`
}

func accountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:  account.ID,
		CardNumber: account.CardNumber,
		LockState:  account.LockState,
		Balances:   renderBalances(account.Balances),
	}
}

// renderBalances serializes only the open currency slots; a currency the
// account never opened is simply absent from the response.
func renderBalances(balances domain.Balances) map[string]string {
	out := make(map[string]string, len(balances))
	for currency, amount := range balances {
		out[string(currency)] = amount.String()
	}
	return out
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body"))
		return
	}

	balances := domain.Balances{}
	for rawCurrency, rawAmount := range req.Balances {
		currency, err := domain.ParseCurrency(rawCurrency)
		if err != nil {
			writeError(w, errors.NewAppError(errors.InvalidInput, "unknown currency").WithDetails(err.Error()))
			return
		}
		amount, err := decimal.NewFromString(rawAmount)
		if err != nil {
			writeError(w, errors.NewAppErrorf(errors.InvalidAmount, "invalid %s balance format", currency).WithDetails(err.Error()))
			return
		}
		balances[currency] = amount
	}

	account, err := h.accountService.CreateAccount(req.CardNumber, req.PINCode, balances)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, accountResponse(account))
}

type BalanceResponse struct {
	AccountID int64             `json:"account_id"`
	Balances  map[string]string `json:"balances"`
}

func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromPath(w, r)
	if !ok {
		return
	}

	balances, err := h.accountService.GetBalances(accountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceResponse{
		AccountID: accountID,
		Balances:  renderBalances(balances),
	})
}

func (h *AccountHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	cardNumber := vars["card_number"]

	account, err := h.accountService.Unlock(cardNumber)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accountResponse(account))
}

func accountIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	vars := mux.Vars(r)
	accountID, err := strconv.ParseInt(vars["account_id"], 10, 64)
	if err != nil || accountID <= 0 {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid account id"))
		return 0, false
	}
	return accountID, true
}
