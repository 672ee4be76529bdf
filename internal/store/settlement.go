package store

import (
	"context"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertSettlement = `INSERT INTO clearhaus_settlement (merchant_id, amount) VALUES ($1, $2)`

// Settlement is one unsettled Clearhaus payout.
type Settlement struct {
	MerchantID int32
	// Net is the payout in minor units (øre/cents).
	Net int64
}

// Amount returns Net as a numeric with two decimals, e.g. 12345 → 123.45.
func (s Settlement) Amount() pgtype.Numeric {
	return pgtype.Numeric{Int: big.NewInt(s.Net), Exp: -2, Valid: true}
}

// InsertSettlement appends one row to clearhaus_settlement.
func (s *Store) InsertSettlement(ctx context.Context, st Settlement) error {
	if _, err := s.db.ExecContext(ctx, insertSettlement, int64(st.MerchantID), st.Amount()); err != nil {
		return fmt.Errorf("store: insert settlement merchant_id=%d: %w", st.MerchantID, err)
	}
	return nil
}
