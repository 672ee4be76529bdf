package store

import (
	"context"
	"database/sql"
	"fmt"
)

// selectCRMExport lists the crm_export columns in scan order. Enum columns are
// cast to text so they scan as plain strings.
const selectCRMExport = `
SELECT
	email,
	registered_at,
	name,
	cvr,
	age,
	total_donated,
	donations_count,
	last_donated_amount,
	last_donated_method::text,
	last_donated_frequency::text,
	last_donated_recipient::text,
	last_donation_tax_deductible,
	last_donation_cancelled,
	last_donated_at,
	first_membership_at,
	first_donation_at,
	first_monthly_donation_at,
	is_member,
	has_gavebrev,
	vitamin_a_amount,
	vitamin_a_units,
	vaccinations_amount,
	vaccinations_units,
	bednets_amount,
	bednets_units,
	malaria_medicine_amount,
	malaria_medicine_units,
	direct_transfer_amount,
	direct_transfer_units,
	deworming_amount,
	deworming_units,
	lives,
	expired_donation_id::text,
	expired_donation_at,
	expired_membership_id::text,
	expired_membership_at
FROM crm_export`

// CRMContact is one row of the crm_export view. Every column except the
// email may be NULL.
type CRMContact struct {
	Email        string
	RegisteredAt sql.NullTime
	Name         sql.NullString
	CVR          sql.NullString
	Age          sql.NullInt64

	TotalDonated   sql.NullFloat64
	DonationsCount sql.NullInt64

	LastDonatedAmount         sql.NullFloat64
	LastDonatedMethod         sql.NullString
	LastDonatedFrequency      sql.NullString
	LastDonatedRecipient      sql.NullString
	LastDonationTaxDeductible sql.NullBool
	LastDonationCancelled     sql.NullBool
	LastDonatedAt             sql.NullTime

	FirstMembershipAt      sql.NullTime
	FirstDonationAt        sql.NullTime
	FirstMonthlyDonationAt sql.NullTime
	IsMember               sql.NullBool
	HasGavebrev            sql.NullBool

	VitaminAAmount        sql.NullFloat64
	VitaminAUnits         sql.NullFloat64
	VaccinationsAmount    sql.NullFloat64
	VaccinationsUnits     sql.NullFloat64
	BednetsAmount         sql.NullFloat64
	BednetsUnits          sql.NullFloat64
	MalariaMedicineAmount sql.NullFloat64
	MalariaMedicineUnits  sql.NullFloat64
	DirectTransferAmount  sql.NullFloat64
	DirectTransferUnits   sql.NullFloat64
	DewormingAmount       sql.NullFloat64
	DewormingUnits        sql.NullFloat64
	Lives                 sql.NullFloat64

	ExpiredDonationID   sql.NullString
	ExpiredDonationAt   sql.NullTime
	ExpiredMembershipID sql.NullString
	ExpiredMembershipAt sql.NullTime
}

func (c *CRMContact) dest() []any {
	return []any{
		&c.Email,
		&c.RegisteredAt,
		&c.Name,
		&c.CVR,
		&c.Age,
		&c.TotalDonated,
		&c.DonationsCount,
		&c.LastDonatedAmount,
		&c.LastDonatedMethod,
		&c.LastDonatedFrequency,
		&c.LastDonatedRecipient,
		&c.LastDonationTaxDeductible,
		&c.LastDonationCancelled,
		&c.LastDonatedAt,
		&c.FirstMembershipAt,
		&c.FirstDonationAt,
		&c.FirstMonthlyDonationAt,
		&c.IsMember,
		&c.HasGavebrev,
		&c.VitaminAAmount,
		&c.VitaminAUnits,
		&c.VaccinationsAmount,
		&c.VaccinationsUnits,
		&c.BednetsAmount,
		&c.BednetsUnits,
		&c.MalariaMedicineAmount,
		&c.MalariaMedicineUnits,
		&c.DirectTransferAmount,
		&c.DirectTransferUnits,
		&c.DewormingAmount,
		&c.DewormingUnits,
		&c.Lives,
		&c.ExpiredDonationID,
		&c.ExpiredDonationAt,
		&c.ExpiredMembershipID,
		&c.ExpiredMembershipAt,
	}
}

// CRMExport reads every row of the crm_export view.
func (s *Store) CRMExport(ctx context.Context) ([]CRMContact, error) {
	rows, err := s.db.QueryContext(ctx, selectCRMExport)
	if err != nil {
		return nil, fmt.Errorf("store: query crm_export: %w", err)
	}
	defer rows.Close()

	var out []CRMContact
	for rows.Next() {
		var c CRMContact
		if err := rows.Scan(c.dest()...); err != nil {
			return nil, fmt.Errorf("store: scan crm_export: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate crm_export: %w", err)
	}

	s.logger.Debug("store: crm_export read", "rows", len(out))
	return out, nil
}
