package api

import (
	"net/http"

	"rifa/domain/services"

	"github.com/gin-gonic/gin"
)

// NumberRequest carries a single raffle number
type NumberRequest struct {
	Number int `json:"number"`
}

// RandomRequest asks for count random available numbers
type RandomRequest struct {
	Count int `json:"count"`
}

// SelectionResponse is the current selection and its price
type SelectionResponse struct {
	Numbers []int  `json:"numbers"`
	Count   int    `json:"count"`
	Total   string `json:"total"`
}

// RandomResponse lists the numbers a random pick added
type RandomResponse struct {
	Added     []int             `json:"added"`
	Selection SelectionResponse `json:"selection"`
}

// GET /api/selection
func (h *Handler) GetSelection(c *gin.Context) {
	c.JSON(http.StatusOK, newSelectionResponse(sessionFrom(c).Raffle))
}

// POST /api/selection/toggle
func (h *Handler) ToggleNumber(c *gin.Context) {
	h.applyNumber(c, (*services.RaffleSession).Toggle)
}

// POST /api/selection/manual
func (h *Handler) AddManual(c *gin.Context) {
	h.applyNumber(c, (*services.RaffleSession).AddManual)
}

func (h *Handler) applyNumber(c *gin.Context, op func(*services.RaffleSession, int) error) {
	var req NumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, codeInvalidRequest, messageInvalidRequest)
		return
	}

	raffle := sessionFrom(c).Raffle
	if err := op(raffle, req.Number); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSelectionResponse(raffle))
}

// POST /api/selection/random
func (h *Handler) SelectRandom(c *gin.Context) {
	var req RandomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, codeInvalidRequest, messageInvalidRequest)
		return
	}
	if req.Count < 1 {
		abortWithError(c, http.StatusUnprocessableEntity, codeInvalidRequest, "A quantidade precisa ser pelo menos 1.")
		return
	}

	raffle := sessionFrom(c).Raffle
	added := raffle.SelectRandom(req.Count)
	if added == nil {
		added = []int{}
	}
	c.JSON(http.StatusOK, RandomResponse{
		Added:     added,
		Selection: newSelectionResponse(raffle),
	})
}

// DELETE /api/selection
func (h *Handler) ClearSelection(c *gin.Context) {
	raffle := sessionFrom(c).Raffle
	raffle.Clear()
	c.JSON(http.StatusOK, newSelectionResponse(raffle))
}

func newSelectionResponse(raffle *services.RaffleSession) SelectionResponse {
	numbers := raffle.Selected()
	if numbers == nil {
		numbers = []int{}
	}
	return SelectionResponse{
		Numbers: numbers,
		Count:   len(numbers),
		Total:   raffle.TotalAmount().String(),
	}
}
