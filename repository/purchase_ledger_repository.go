package repository

import (
	"context"
	"fmt"
	"time"

	"rifa/database"
	"rifa/domain/entities"
	"rifa/domain/interfaces"
	"rifa/infrastructure/observability"

	"github.com/govalues/decimal"
	"github.com/jackc/pgx/v5"
)

const ledgerRepositoryName = "purchase_ledger"

type purchaseLedgerRepository struct {
	db *database.DB
}

// NewPurchaseLedgerRepository creates a ledger backed by PostgreSQL
func NewPurchaseLedgerRepository(db *database.DB) interfaces.PurchaseLedgerRepository {
	return &purchaseLedgerRepository{db: db}
}

// Record inserts a confirmed purchase and its numbers in one transaction.
// A purchase that is already recorded is left untouched.
func (r *purchaseLedgerRepository) Record(ctx context.Context, sessionKey, raffleTitle string, purchase *entities.Purchase) error {
	defer observability.GetMetrics().MeasureDatabaseQuery(ledgerRepositoryName, "Record")()

	if purchase == nil || purchase.ConfirmedAt == nil {
		return fmt.Errorf("only confirmed purchases can be recorded")
	}

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		inserted, err := insertPurchase(ctx, tx, sessionKey, raffleTitle, purchase)
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}
		return insertPurchaseNumbers(ctx, tx, purchase.ID, purchase.Numbers)
	})
}

func insertPurchase(ctx context.Context, q Queryable, sessionKey, raffleTitle string, purchase *entities.Purchase) (bool, error) {
	query := `
		INSERT INTO raffle_purchases (id, session_key, raffle_title, quantity, amount, pix_code, created_at, confirmed_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`

	tag, err := q.Exec(ctx, query,
		purchase.ID,
		sessionKey,
		raffleTitle,
		purchase.Count(),
		purchase.Amount.String(),
		purchase.PixCode,
		purchase.CreatedAt,
		*purchase.ConfirmedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert purchase %s: %w", purchase.ID, err)
	}
	return tag.RowsAffected() == 1, nil
}

func insertPurchaseNumbers(ctx context.Context, q Queryable, purchaseID string, numbers []int) error {
	batch := &pgx.Batch{}
	for _, n := range numbers {
		batch.Queue(`INSERT INTO raffle_purchase_numbers (purchase_id, number) VALUES ($1, $2)`, purchaseID, n)
	}

	results := q.SendBatch(ctx, batch)
	for range numbers {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert numbers for purchase %s: %w", purchaseID, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close number batch for purchase %s: %w", purchaseID, err)
	}
	return nil
}

// ListRecent returns the latest confirmed purchases, newest first
func (r *purchaseLedgerRepository) ListRecent(ctx context.Context, limit int) ([]*interfaces.LedgerEntry, error) {
	defer observability.GetMetrics().MeasureDatabaseQuery(ledgerRepositoryName, "ListRecent")()

	query := `
		SELECT p.id, p.session_key, p.raffle_title, p.amount::text, p.pix_code, p.created_at, p.confirmed_at,
			COALESCE(
				(SELECT array_agg(n.number ORDER BY n.number) FROM raffle_purchase_numbers n WHERE n.purchase_id = p.id),
				'{}'
			)::int4[]
		FROM raffle_purchases p
		ORDER BY p.confirmed_at DESC, p.id
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent purchases: %w", err)
	}
	defer rows.Close()

	entries := make([]*interfaces.LedgerEntry, 0)
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchases: %w", err)
	}

	return entries, nil
}

func scanLedgerEntry(row pgx.Row) (*interfaces.LedgerEntry, error) {
	var (
		entry    interfaces.LedgerEntry
		purchase entities.Purchase
		amount   string
		numbers  []int32
	)

	purchase.ConfirmedAt = new(time.Time)
	if err := row.Scan(
		&purchase.ID,
		&entry.SessionKey,
		&entry.RaffleTitle,
		&amount,
		&purchase.PixCode,
		&purchase.CreatedAt,
		purchase.ConfirmedAt,
		&numbers,
	); err != nil {
		return nil, fmt.Errorf("failed to scan purchase: %w", err)
	}

	parsed, err := decimal.Parse(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q for purchase %s: %w", amount, purchase.ID, err)
	}
	purchase.Amount = parsed
	purchase.Status = entities.PurchaseStatusConfirmed
	purchase.Numbers = make([]int, len(numbers))
	for i, n := range numbers {
		purchase.Numbers[i] = int(n)
	}

	entry.Purchase = &purchase
	return &entry, nil
}

// CountBySession returns how many purchases a session has recorded
func (r *purchaseLedgerRepository) CountBySession(ctx context.Context, sessionKey string) (int, error) {
	defer observability.GetMetrics().MeasureDatabaseQuery(ledgerRepositoryName, "CountBySession")()

	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM raffle_purchases WHERE session_key = $1`, sessionKey).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count purchases for %s: %w", sessionKey, err)
	}
	return count, nil
}
