package errors

import "net/http"

// HTTPStatus maps an error code to the status the boundary responds with.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case AccountNotFound, DestinationNotFound:
		return http.StatusNotFound
	case CardLocked:
		return http.StatusLocked
	case AuthRejected:
		return http.StatusUnauthorized
	case InvalidInput, InvalidAmount, SelfTransfer:
		return http.StatusBadRequest
	case InsufficientFunds, CurrencyNotOpen:
		return http.StatusUnprocessableEntity
	case DuplicateCard:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
