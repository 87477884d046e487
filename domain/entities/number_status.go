package entities

import "fmt"

// NumberStatus is the derived state of a raffle number within a session
type NumberStatus string

const (
	NumberStatusAvailable NumberStatus = "available"
	NumberStatusPurchased NumberStatus = "purchased"
	NumberStatusSelected  NumberStatus = "selected"
)

// NumberState pairs a number with its status, used for grid rendering
type NumberState struct {
	Number int          `json:"number"`
	Status NumberStatus `json:"status"`
}

// FormatTicketNumber zero-pads a number to three digits (7 -> "007")
func FormatTicketNumber(n int) string {
	return fmt.Sprintf("%03d", n)
}
