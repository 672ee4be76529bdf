package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))), mock
}

func TestOpen_EmptyURL(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), "", PoolConfig{}); !errors.Is(err, ErrNoDatabaseURL) {
		t.Fatalf("err = %v, want ErrNoDatabaseURL", err)
	}
}

func TestOpen_InvalidURL(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), "postgres://%zz", PoolConfig{}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestStore_Ping(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectPing()

	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSettlement_Amount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		net  int64
		want string
	}{
		{12345, "12345"},
		{-50, "-50"},
		{0, "0"},
	}
	for _, tt := range tests {
		amt := Settlement{MerchantID: 1, Net: tt.net}.Amount()
		if !amt.Valid || amt.Exp != -2 || amt.Int.String() != tt.want {
			t.Errorf("Amount(%d) = {Int:%s Exp:%d Valid:%v}", tt.net, amt.Int, amt.Exp, amt.Valid)
		}
	}
}

func TestStore_InsertSettlement(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(insertSettlement)).
		WithArgs(int64(1000123), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.InsertSettlement(context.Background(), Settlement{MerchantID: 1000123, Net: 999}); err != nil {
		t.Fatalf("InsertSettlement: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestStore_InsertSettlement_Error(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	boom := errors.New("unique violation")
	mock.ExpectExec(regexp.QuoteMeta(insertSettlement)).WillReturnError(boom)

	err := s.InsertSettlement(context.Background(), Settlement{MerchantID: 7, Net: 1})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}

func crmColumns() []string {
	return []string{
		"email", "registered_at", "name", "cvr", "age", "total_donated", "donations_count",
		"last_donated_amount", "last_donated_method", "last_donated_frequency", "last_donated_recipient",
		"last_donation_tax_deductible", "last_donation_cancelled", "last_donated_at",
		"first_membership_at", "first_donation_at", "first_monthly_donation_at", "is_member", "has_gavebrev",
		"vitamin_a_amount", "vitamin_a_units", "vaccinations_amount", "vaccinations_units",
		"bednets_amount", "bednets_units", "malaria_medicine_amount", "malaria_medicine_units",
		"direct_transfer_amount", "direct_transfer_units", "deworming_amount", "deworming_units",
		"lives", "expired_donation_id", "expired_donation_at", "expired_membership_id", "expired_membership_at",
	}
}

func TestStore_CRMExport(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	registered := time.Date(2023, 4, 1, 10, 0, 0, 0, time.UTC)

	full := []driver.Value{
		"donor@example.org", registered, "Karen", nil, int64(42), 1500.5, int64(3),
		"500.00", "card", "monthly", "vitamin_a", true, false, registered,
		nil, registered, registered, true, false,
		100.0, 2.5, 0.0, 0.0,
		0.0, 0.0, 0.0, 0.0,
		0.0, 0.0, 0.0, 0.0,
		0.12, "d-1", registered, nil, nil,
	}
	empty := make([]driver.Value, len(full))
	empty[0] = "blank@example.org"

	rows := sqlmock.NewRows(crmColumns()).AddRow(full...).AddRow(empty...)
	mock.ExpectQuery(`FROM crm_export`).WillReturnRows(rows)

	got, err := s.CRMExport(context.Background())
	if err != nil {
		t.Fatalf("CRMExport: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rows = %d, want 2", len(got))
	}

	c := got[0]
	if c.Email != "donor@example.org" || c.Name.String != "Karen" || !c.Name.Valid {
		t.Errorf("identity = %q %+v", c.Email, c.Name)
	}
	if c.CVR.Valid {
		t.Errorf("CVR = %+v, want NULL", c.CVR)
	}
	if c.LastDonatedAmount.Float64 != 500 || !c.LastDonatedAmount.Valid {
		t.Errorf("last donated amount = %+v", c.LastDonatedAmount)
	}
	if !c.RegisteredAt.Time.Equal(registered) {
		t.Errorf("registered at = %v", c.RegisteredAt.Time)
	}
	if c.ExpiredDonationID.String != "d-1" || c.ExpiredMembershipID.Valid {
		t.Errorf("expired ids = %+v %+v", c.ExpiredDonationID, c.ExpiredMembershipID)
	}

	b := got[1]
	if b.Name.Valid || b.Age.Valid || b.IsMember.Valid || b.Lives.Valid {
		t.Errorf("blank row has values: %+v", b)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestStore_CRMExport_QueryError(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectQuery(`FROM crm_export`).WillReturnError(errors.New("relation does not exist"))

	if _, err := s.CRMExport(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestStore_CRMExport_RowError(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	row := make([]driver.Value, len(crmColumns()))
	row[0] = "a@example.org"
	rows := sqlmock.NewRows(crmColumns()).AddRow(row...).RowError(0, errors.New("connection reset"))
	mock.ExpectQuery(`FROM crm_export`).WillReturnRows(rows)

	if _, err := s.CRMExport(context.Background()); err == nil {
		t.Fatal("expected row error")
	}
}
