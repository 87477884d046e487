package testutil

import (
	"time"

	"rifa/domain/entities"

	"github.com/govalues/decimal"
)

// CreateConfirmedPurchase builds a confirmed purchase priced at 10 per number
func CreateConfirmedPurchase(id string, numbers []int, confirmedAt time.Time) *entities.Purchase {
	amount, err := entities.CalculateAmount(decimal.MustNew(10, 0), len(numbers))
	if err != nil {
		panic(err)
	}
	return &entities.Purchase{
		ID:          id,
		Numbers:     numbers,
		Amount:      amount,
		Status:      entities.PurchaseStatusConfirmed,
		CreatedAt:   confirmedAt.Add(-time.Minute),
		ConfirmedAt: &confirmedAt,
		PixCode:     "00020126580014BR.GOV.BCB.PIX0136TEST",
	}
}

// CreateConfirmedPurchaseWithAmount builds a confirmed purchase with an explicit amount
func CreateConfirmedPurchaseWithAmount(id string, numbers []int, amount string, confirmedAt time.Time) *entities.Purchase {
	purchase := CreateConfirmedPurchase(id, numbers, confirmedAt)
	purchase.Amount = decimal.MustParse(amount)
	return purchase
}
