package models

import "github.com/shopspring/decimal"

// Column widths of the schema, in characters
const (
	MaxEmailLength               = 120
	MaxCategoryNameLength        = 50
	MaxCategoryDescriptionLength = 200
	MaxTitleLength               = 200
	MaxSenderNameLength          = 100
	MaxNoteLength                = 200
	MaxStyleLength               = 20
)

// MaxAmount is the largest value a NUMERIC(14,2) money column holds
var MaxAmount = decimal.New(1, 12).Sub(decimal.New(1, -2))

// AmountFits reports whether v can be stored in a money column
func AmountFits(v decimal.Decimal) bool {
	return v.Round(2).LessThanOrEqual(MaxAmount)
}
