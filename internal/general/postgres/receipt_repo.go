package postgres

import (
	"context"
	"errors"

	"ride-lifecycle/internal/domain/ride"
	"ride-lifecycle/internal/ports"

	"github.com/jackc/pgx/v5"
)

// ReceiptRepo stores transition receipts. Both methods require the caller's
// transaction so a receipt is only visible once its transition committed.
type ReceiptRepo struct{}

// NewReceiptRepo constructs a new ReceiptRepo.
func NewReceiptRepo() ports.TransitionReceiptRepository {
	return &ReceiptRepo{}
}

// Get returns the stored receipt for key, or (nil, nil) when none exists.
func (repo *ReceiptRepo) Get(ctx context.Context, key string) (*ports.TransitionReceipt, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var (
		receipt    ports.TransitionReceipt
		state, sub string
	)
	err = tx.QueryRow(ctx, `
		SELECT idempotency_key, ride_id, state, sub_state, legacy_status, version, committed_at
		FROM transition_receipts
		WHERE idempotency_key = $1
	`, key).Scan(
		&receipt.Key, &receipt.RideID, &state, &sub,
		&receipt.LegacyStatus, &receipt.Version, &receipt.CommittedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	receipt.State = ride.State(state)
	receipt.SubState = ride.SubState(sub)
	return &receipt, nil
}

// Put inserts the receipt. Duplicate keys are a programming error upstream
// (the executor checks Get first, in the same tx) so conflicts surface as errors.
func (repo *ReceiptRepo) Put(ctx context.Context, receipt *ports.TransitionReceipt) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transition_receipts (idempotency_key, ride_id, state, sub_state, legacy_status, version, committed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		receipt.Key, receipt.RideID,
		receipt.State.String(), receipt.SubState.String(),
		receipt.LegacyStatus, receipt.Version, receipt.CommittedAt,
	)
	return err
}
