package api

import (
	"net/http"
	"time"

	"rifa/application"
	"rifa/domain/entities"

	"github.com/gin-gonic/gin"
)

// PurchaseResponse is a purchase as returned by the API
type PurchaseResponse struct {
	ID          string     `json:"id"`
	Numbers     []int      `json:"numbers"`
	Amount      string     `json:"amount"`
	Status      string     `json:"status"`
	PixCode     string     `json:"pix_code"`
	CreatedAt   time.Time  `json:"created_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

// PaymentResponse is the state of the payment window
type PaymentResponse struct {
	State            application.PaymentState `json:"state"`
	Deadline         *time.Time               `json:"deadline,omitempty"`
	RemainingSeconds int                      `json:"remaining_seconds"`
}

// CurrentPurchaseResponse is the pending purchase with its payment state
type CurrentPurchaseResponse struct {
	Purchase PurchaseResponse `json:"purchase"`
	Payment  PaymentResponse  `json:"payment"`
}

// HistoryResponse lists confirmed purchases with their totals
type HistoryResponse struct {
	Purchases []PurchaseResponse `json:"purchases"`
	Numbers   int                `json:"numbers"`
	Spent     string             `json:"spent"`
}

// POST /api/purchases
func (h *Handler) CreatePurchase(c *gin.Context) {
	purchase, err := sessionFrom(c).Raffle.CreatePurchase()
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newPurchaseResponse(purchase))
}

// GET /api/purchases
func (h *Handler) GetHistory(c *gin.Context) {
	raffle := sessionFrom(c).Raffle
	history := raffle.History()
	numbers, spent := raffle.HistorySummary()

	purchases := make([]PurchaseResponse, 0, len(history))
	for _, p := range history {
		purchases = append(purchases, newPurchaseResponse(p))
	}
	c.JSON(http.StatusOK, HistoryResponse{
		Purchases: purchases,
		Numbers:   numbers,
		Spent:     spent.String(),
	})
}

// GET /api/purchases/current
func (h *Handler) GetCurrentPurchase(c *gin.Context) {
	sess := sessionFrom(c)
	purchase := sess.Raffle.CurrentPurchase()
	if purchase == nil {
		handleError(c, entities.ErrNoPendingPurchase)
		return
	}
	c.JSON(http.StatusOK, newCurrentPurchaseResponse(purchase, sess.Payment.Snapshot()))
}

// POST /api/purchases/current/payment
func (h *Handler) StartPayment(c *gin.Context) {
	sess := sessionFrom(c)
	snap, err := sess.Payment.Start()
	if err != nil {
		handleError(c, err)
		return
	}
	purchase := sess.Raffle.CurrentPurchase()
	if purchase == nil {
		handleError(c, entities.ErrNoPendingPurchase)
		return
	}
	c.JSON(http.StatusOK, newCurrentPurchaseResponse(purchase, snap))
}

// POST /api/purchases/current/confirm answers 202: the purchase is confirmed
// once processing finishes
func (h *Handler) ConfirmPayment(c *gin.Context) {
	sess := sessionFrom(c)
	purchase := sess.Raffle.CurrentPurchase()
	if purchase == nil {
		handleError(c, entities.ErrNoPendingPurchase)
		return
	}
	snap, err := sess.Payment.ConfirmPayment()
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, newCurrentPurchaseResponse(purchase, snap))
}

// DELETE /api/purchases/current
func (h *Handler) CancelPurchase(c *gin.Context) {
	sess := sessionFrom(c)

	cancelled, err := sess.Payment.CancelPurchase()
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPurchaseResponse(cancelled))
}

func newPurchaseResponse(p *entities.Purchase) PurchaseResponse {
	return PurchaseResponse{
		ID:          p.ID,
		Numbers:     p.Numbers,
		Amount:      p.Amount.String(),
		Status:      string(p.Status),
		PixCode:     p.PixCode,
		CreatedAt:   p.CreatedAt,
		ConfirmedAt: p.ConfirmedAt,
	}
}

func newCurrentPurchaseResponse(p *entities.Purchase, snap application.PaymentSnapshot) CurrentPurchaseResponse {
	payment := PaymentResponse{
		State:            snap.State,
		RemainingSeconds: snap.RemainingSeconds(),
	}
	if snap.State == application.PaymentStatePending && !snap.Deadline.IsZero() {
		deadline := snap.Deadline
		payment.Deadline = &deadline
	}
	return CurrentPurchaseResponse{
		Purchase: newPurchaseResponse(p),
		Payment:  payment,
	}
}
