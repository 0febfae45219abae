package mailer

import "github.com/shopspring/decimal"

// OrderConfirmation is the data of OrderConfirmationTemplate.
type OrderConfirmation struct {
	Username string
	Number   string
	Note     string
	Items    []OrderLine
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

type OrderLine struct {
	SKU       string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}
