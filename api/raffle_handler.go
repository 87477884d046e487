package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"rifa/domain/entities"

	"github.com/gin-gonic/gin"
	"github.com/govalues/decimal"
)

// RaffleResponse is the session's raffle with its totals
type RaffleResponse struct {
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Images         []string   `json:"images"`
	DrawDate       *time.Time `json:"draw_date,omitempty"`
	PricePerNumber string     `json:"price_per_number"`
	TotalNumbers   int        `json:"total_numbers"`
	Pages          int        `json:"pages"`
	Available      int        `json:"available"`
	Purchased      int        `json:"purchased"`
	Selected       int        `json:"selected"`
}

// UpdateConfigRequest is a partial config update; omitted fields are kept
type UpdateConfigRequest struct {
	PricePerNumber *string    `json:"price_per_number"`
	TotalNumbers   *int       `json:"total_numbers"`
	Title          *string    `json:"title"`
	Description    *string    `json:"description"`
	Images         []string   `json:"images"`
	DrawDate       *time.Time `json:"draw_date"`
}

// NumbersResponse is one page of the number grid
type NumbersResponse struct {
	Page    entities.NumberRange   `json:"page"`
	Pages   int                    `json:"pages"`
	Stats   entities.RangeStats    `json:"stats"`
	Numbers []entities.NumberState `json:"numbers"`
}

// GET /api/raffle
func (h *Handler) GetRaffle(c *gin.Context) {
	raffle := sessionFrom(c).Raffle
	c.JSON(http.StatusOK, newRaffleResponse(raffle.Config(), raffle.PurchasedCount(), raffle.SelectedCount(), raffle.AvailableCount()))
}

// PATCH /api/raffle/config
func (h *Handler) UpdateConfig(c *gin.Context) {
	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, codeInvalidRequest, messageInvalidRequest)
		return
	}

	update := entities.RaffleConfigUpdate{
		TotalNumbers: req.TotalNumbers,
		Title:        req.Title,
		Description:  req.Description,
		Images:       req.Images,
		DrawDate:     req.DrawDate,
	}
	if req.PricePerNumber != nil {
		price, err := decimal.Parse(strings.TrimSpace(*req.PricePerNumber))
		if err != nil {
			abortWithError(c, http.StatusUnprocessableEntity, codeInvalidConfig, "Valor por número inválido.")
			return
		}
		update.PricePerNumber = &price
	}
	if update.IsEmpty() {
		abortWithError(c, http.StatusBadRequest, codeInvalidRequest, messageInvalidRequest)
		return
	}

	raffle := sessionFrom(c).Raffle
	cfg, err := raffle.UpdateConfig(update)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRaffleResponse(cfg, raffle.PurchasedCount(), raffle.SelectedCount(), raffle.AvailableCount()))
}

// GET /api/raffle/numbers?page=N
func (h *Handler) GetNumbers(c *gin.Context) {
	index, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, codeInvalidRequest, messageInvalidRequest)
		return
	}

	raffle := sessionFrom(c).Raffle
	total := raffle.Config().TotalNumbers
	page, ok := entities.RangeAt(index, total)
	if !ok {
		abortWithError(c, http.StatusNotFound, codeNotFound, "Página inexistente.")
		return
	}

	c.JSON(http.StatusOK, NumbersResponse{
		Page:    page,
		Pages:   len(entities.Ranges(total)),
		Stats:   raffle.RangeStats(page),
		Numbers: raffle.PageStatuses(page),
	})
}

func newRaffleResponse(cfg entities.RaffleConfig, purchased, selected, available int) RaffleResponse {
	images := cfg.Images
	if images == nil {
		images = []string{}
	}
	return RaffleResponse{
		Title:          cfg.Title,
		Description:    cfg.Description,
		Images:         images,
		DrawDate:       cfg.DrawDate,
		PricePerNumber: cfg.PricePerNumber.String(),
		TotalNumbers:   cfg.TotalNumbers,
		Pages:          len(entities.Ranges(cfg.TotalNumbers)),
		Available:      available,
		Purchased:      purchased,
		Selected:       selected,
	}
}
