package records

import (
	"time"

	"github.com/JonMunkholm/csvmap/internal/core"
	"github.com/jackc/pgx/v5/pgtype"
)

func init() {
	core.Register[NsCustomer](core.RecordInfo{
		Key:   "ns_customers",
		Group: "NS",
		Label: "Customers",
		Table: "ns_customers",
	})
	core.Register[NsInvoiceDetail](core.RecordInfo{
		Key:   "ns_invoice_detail",
		Group: "NS",
		Label: "Invoice Detail",
		Table: "ns_invoice_detail",
	})
}

// NsCustomer is one row of the NetSuite customer saved search.
type NsCustomer struct {
	SalesforceID   string          `csv:"salesforce_id_io"`
	InternalID     string          `csv:"internal_id"`
	Name           string          `csv:"name"`
	Duplicate      *bool           `csv:"duplicate"`
	CompanyName    string          `csv:"company_name"`
	Balance        *pgtype.Numeric `csv:"balance"`
	UnbilledOrders *pgtype.Numeric `csv:"unbilled_orders"`
	OverdueBalance *pgtype.Numeric `csv:"overdue_balance"`
	DaysOverdue    *int32          `csv:"days_overdue"`
}

// NsInvoiceDetail is one invoice line. Shipping state is normalised to the
// two-letter code after reading.
type NsInvoiceDetail struct {
	SfdcOppID              string          `csv:"sfdc_opp_id"`
	SfdcOppLineID          string          `csv:"sfdc_opp_line_id"`
	SfdcPricebookID        string          `csv:"sfdc_pricebook_id"`
	CustomerInternalID     string          `csv:"customer_internal_id"`
	ProductInternalID      string          `csv:"product_internal_id"`
	Type                   string          `csv:"type"`
	Date                   *time.Time      `csv:"date"`
	DateDue                *time.Time      `csv:"date_due"`
	DocumentNumber         string          `csv:"document_number"`
	Name                   string          `csv:"name"`
	Memo                   string          `csv:"memo"`
	Item                   string          `csv:"item"`
	Qty                    *pgtype.Numeric `csv:"qty"`
	ContractQuantity       *pgtype.Numeric `csv:"contract_quantity"`
	UnitPrice              *pgtype.Numeric `csv:"unit_price"`
	Amount                 *pgtype.Numeric `csv:"amount"`
	StartDateLine          *time.Time      `csv:"start_date_line"`
	EndDateLine            *time.Time      `csv:"end_date_line_level"`
	Account                string          `csv:"account"`
	ShippingAddressCity    string          `csv:"shipping_address_city"`
	ShippingAddressState   string          `csv:"shipping_address_state"`
	ShippingAddressCountry string          `csv:"shipping_address_country"`
}

// Normalize implements core.Normalizer.
func (r *NsInvoiceDetail) Normalize() {
	r.ShippingAddressState = NormalizeUsState(r.ShippingAddressState)
}
