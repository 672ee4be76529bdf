package brevo

import (
	"database/sql"

	"github.com/flemzord/cronsync/internal/store"
)

// Contact is one entry of the contacts/import jsonBody.
type Contact struct {
	Email      string         `json:"email"`
	Attributes map[string]any `json:"attributes"`
}

const dateLayout = "2006-01-02"

// contactFromRow maps a crm_export row onto the Brevo attribute names.
// NULL columns are sent as JSON null so that Brevo clears the attribute.
func contactFromRow(c store.CRMContact, renewURL string) Contact {
	attrs := map[string]any{
		"DATO_FOR_OPRETTELSE":                   date(c.RegisteredAt),
		"SIDSTE_DONATIONSDATO":                  date(c.LastDonatedAt),
		"SIDSTE_DONATIONSBELOB":                 number(c.LastDonatedAmount),
		"SIDSTE_DONATIONSFREKVENS":              text(c.LastDonatedFrequency),
		"SIDSTE_DONATIONSMETODE":                text(c.LastDonatedMethod),
		"SIDSTE_DONATIONSOEREMAERKNING":         text(c.LastDonatedRecipient),
		"ER_SIDSTE_DONATION_OPSAGT":             boolean(c.LastDonationCancelled),
		"ER_SIDSTE_DONATION_FRADRAGSBERETTIGET": boolean(c.LastDonationTaxDeductible),
		"FOERSTE_DONATIONSDATO":                 date(c.FirstDonationAt),
		"FOERSTE_MAANEDLIG_DONATIONSDATO":       date(c.FirstMonthlyDonationAt),
		"FOERSTE_MEDLEMSKABSDATO":               date(c.FirstMembershipAt),
		"TOTALT_DONERET":                        number(c.TotalDonated),
		"ANTAL_DONATIONER":                      integer(c.DonationsCount),
		"MEDLEM":                                boolean(c.IsMember),
		"GAVEBREV":                              boolean(c.HasGavebrev),
		"ALDER":                                 integer(c.Age),
		"CVR":                                   text(c.CVR),
		"DONERET_AVITAMIN":                      number(c.VitaminAAmount),
		"IMPACT_AVITAMIN":                       number(c.VitaminAUnits),
		"DONERET_INCENTIVES":                    number(c.VaccinationsAmount),
		"IMPACT_INCENTIVES":                     number(c.VaccinationsUnits),
		"DONERET_MYGGENET":                      number(c.BednetsAmount),
		"IMPACT_MYGGENET":                       number(c.BednetsUnits),
		"DONERET_MALARIAMEDICIN":                number(c.MalariaMedicineAmount),
		"IMPACT_MALARIAMEDICIN":                 number(c.MalariaMedicineUnits),
		"DONERET_KONTANTOVERFOERSLER":           number(c.DirectTransferAmount),
		"IMPACT_KONTANTOVERFOERSLER":            number(c.DirectTransferUnits),
		"DONERET_ORMEKURE":                      number(c.DewormingAmount),
		"IMPACT_ORMEKURE":                       number(c.DewormingUnits),
		"LIVES_SAVED":                           number(c.Lives),
		"UDLOEBET_DONATIONSLINK":                link(renewURL, c.ExpiredDonationID),
		"DONATIONENS_UDLOEBSDATO":               date(c.ExpiredDonationAt),
		"UDLOEBET_MEDLEMSKABSLINK":              link(renewURL, c.ExpiredMembershipID),
		"MEDLEMSKABETS_UDLOEBSDATO":             date(c.ExpiredMembershipAt),
	}
	if c.Name.Valid {
		attrs["FIRSTNAME"] = c.Name.String
	}
	return Contact{Email: c.Email, Attributes: attrs}
}

func date(t sql.NullTime) any {
	if !t.Valid {
		return nil
	}
	return t.Time.UTC().Format(dateLayout)
}

func number(f sql.NullFloat64) any {
	if !f.Valid {
		return nil
	}
	return f.Float64
}

func integer(n sql.NullInt64) any {
	if !n.Valid {
		return nil
	}
	return n.Int64
}

func text(s sql.NullString) any {
	if !s.Valid {
		return nil
	}
	return s.String
}

func boolean(b sql.NullBool) any {
	if !b.Valid {
		return nil
	}
	return b.Bool
}

func link(renewURL string, id sql.NullString) any {
	if !id.Valid {
		return nil
	}
	return renewURL + "?id=" + id.String
}
