package records

import (
	"time"

	"github.com/JonMunkholm/csvmap/internal/core"
	"github.com/jackc/pgx/v5/pgtype"
)

func init() {
	core.Register[AnrokTransaction](core.RecordInfo{
		Key:   "anrok_transactions",
		Group: "Anrok",
		Label: "Transactions",
		Table: "anrok_transactions",
	})
}

// AnrokTransaction is one row of the Anrok transaction export. Anrok uses
// display headers, so database columns are derived from them
// ("Transaction ID" -> transaction_id). Multi-valued cells are ';'-joined.
type AnrokTransaction struct {
	TransactionID          string          `csv:"Transaction ID"`
	CustomerID             string          `csv:"Customer ID"`
	CustomerName           string          `csv:"Customer name"`
	VatValidationStatus    string          `csv:"Overall VAT ID validation status,db=overall_vat_id_validation_status"`
	ValidVatIDs            []string        `csv:"Valid VAT IDs"`
	OtherVatIDs            []string        `csv:"Other VAT IDs"`
	InvoiceDate            *time.Time      `csv:"Invoice date"`
	TaxDate                *time.Time      `csv:"Tax date"`
	TransactionCurrency    string          `csv:"Transaction currency"`
	SalesAmount            *pgtype.Numeric `csv:"Sales amount"`
	ExemptReasons          []string        `csv:"Exempt reasons"`
	TaxAmount              *pgtype.Numeric `csv:"Tax amount"`
	InvoiceAmount          *pgtype.Numeric `csv:"Invoice amount"`
	Void                   *bool           `csv:"Void"`
	CustomerAddressLine1   string          `csv:"Customer address line 1"`
	CustomerAddressCity    string          `csv:"Customer address city"`
	CustomerAddressRegion  string          `csv:"Customer address region"`
	CustomerPostalCode     string          `csv:"Customer address postal code,db=customer_address_postal_code"`
	CustomerAddressCountry string          `csv:"Customer address country"`
	CustomerCountryCode    string          `csv:"Customer country code"`
	Jurisdictions          []string        `csv:"Jurisdictions"`
	JurisdictionIDs        []string        `csv:"Jurisdictions IDs"`
	ReturnIDs              []string        `csv:"Return IDs"`
}
