package api

import (
	"errors"
	"net/http"

	"rifa/domain/entities"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Error codes returned in errorResponse.Error
const (
	codeNumberOutOfRange  = "number_out_of_range"
	codeNumberTaken       = "number_taken"
	codeEmptySelection    = "empty_selection"
	codePurchasePending   = "purchase_pending"
	codeNoPendingPurchase = "no_pending_purchase"
	codeInvalidConfig     = "invalid_config"
	codePaymentNotPending = "payment_not_pending"
	codeInvalidRequest    = "invalid_request"
	codeMissingSession    = "missing_session"
	codeNotFound          = "not_found"
	codeUnavailable       = "unavailable"
	codeInternal          = "internal_error"
)

const (
	messageInvalidRequest = "Requisição inválida."
	messageMissingSession = "Informe o cabeçalho X-Session-ID."
	messageInternalError  = "Algo deu errado. Tente novamente mais tarde."
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: code, Message: message})
}

// handleError maps raffle errors to HTTP statuses
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, entities.ErrNumberOutOfRange):
		abortWithError(c, http.StatusUnprocessableEntity, codeNumberOutOfRange, "Número fora do intervalo da rifa.")
	case errors.Is(err, entities.ErrNumberTaken):
		abortWithError(c, http.StatusConflict, codeNumberTaken, "Esse número já foi vendido.")
	case errors.Is(err, entities.ErrEmptySelection):
		abortWithError(c, http.StatusUnprocessableEntity, codeEmptySelection, "Selecione pelo menos um número.")
	case errors.Is(err, entities.ErrPurchasePending):
		abortWithError(c, http.StatusConflict, codePurchasePending, "Já existe uma compra aguardando pagamento.")
	case errors.Is(err, entities.ErrNoPendingPurchase),
		errors.Is(err, entities.ErrStalePurchase):
		abortWithError(c, http.StatusNotFound, codeNoPendingPurchase, "Nenhuma compra pendente.")
	case errors.Is(err, entities.ErrInvalidConfig):
		abortWithError(c, http.StatusUnprocessableEntity, codeInvalidConfig, "Configuração inválida.")
	case errors.Is(err, entities.ErrPaymentNotPending),
		errors.Is(err, entities.ErrPurchaseExpired):
		abortWithError(c, http.StatusConflict, codePaymentNotPending, "O pagamento não está aguardando confirmação.")
	default:
		log.WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"error":  err,
		}).Error("API request failed")
		abortWithError(c, http.StatusInternalServerError, codeInternal, messageInternalError)
	}
}
