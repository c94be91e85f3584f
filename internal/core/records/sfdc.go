package records

import (
	"time"

	"github.com/JonMunkholm/csvmap/internal/core"
	"github.com/jackc/pgx/v5/pgtype"
)

func init() {
	core.Register[SfdcCustomer](core.RecordInfo{
		Key:   "sfdc_customers",
		Group: "SFDC",
		Label: "Customers",
		Table: "sfdc_customers",
	})
	core.Register[SfdcPriceBook](core.RecordInfo{
		Key:   "sfdc_price_book",
		Group: "SFDC",
		Label: "Price Book",
		Table: "sfdc_price_book",
	})
	core.Register[SfdcOppDetail](core.RecordInfo{
		Key:   "sfdc_opp_detail",
		Group: "SFDC",
		Label: "Opp Detail",
		Table: "sfdc_opp_detail",
	})
}

// SfdcCustomer is one row of the Salesforce account export.
type SfdcCustomer struct {
	AccountID    string     `csv:"account_id_casesafe"`
	AccountName  string     `csv:"account_name"`
	LastActivity *time.Time `csv:"last_activity"`
	Type         string     `csv:"type"`
}

type SfdcPriceBook struct {
	PriceBookName string          `csv:"price_book_name"`
	ListPrice     *pgtype.Numeric `csv:"list_price"`
	ProductName   string          `csv:"product_name"`
	ProductCode   string          `csv:"product_code"`
	ProductID     string          `csv:"product_id_casesafe"`
}

// SfdcOppDetail is one opportunity product line.
type SfdcOppDetail struct {
	OpportunityID          string          `csv:"opportunity_id"`
	OpportunityProductID   string          `csv:"opportunity_product_casesafe_id"`
	OpportunityName        string          `csv:"opportunity_name"`
	AccountName            string          `csv:"account_name"`
	CloseDate              *time.Time      `csv:"close_date"`
	BookedDate             *time.Time      `csv:"booked_date"`
	FiscalPeriod           string          `csv:"fiscal_period"`
	PaymentSchedule        string          `csv:"payment_schedule"`
	PaymentDue             string          `csv:"payment_due"`
	ContractStartDate      *time.Time      `csv:"contract_start_date"`
	ContractEndDate        *time.Time      `csv:"contract_end_date"`
	ProductName            string          `csv:"product_name"`
	DeploymentType         string          `csv:"deployment_type"`
	Amount                 *pgtype.Numeric `csv:"amount"`
	Quantity               *pgtype.Numeric `csv:"quantity"`
	ListPrice              *pgtype.Numeric `csv:"list_price"`
	SalesPrice             *pgtype.Numeric `csv:"sales_price"`
	TotalPrice             *pgtype.Numeric `csv:"total_price"`
	StartDate              *time.Time      `csv:"start_date"`
	EndDate                *time.Time      `csv:"end_date"`
	TermInMonths           *int32          `csv:"term_in_months"`
	ProductCode            string          `csv:"product_code"`
	TotalAmountDueCustomer *pgtype.Numeric `csv:"total_amount_due_customer"`
	TotalAmountDuePartner  *pgtype.Numeric `csv:"total_amount_due_partner"`
	ActiveProduct          *bool           `csv:"active_product"`
}
