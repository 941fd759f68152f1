package domain

// Category labels. CategoryIncome is the only category stored with a
// non-negative amount; CategoryOthers is the catch-all for text no rule
// matches.
const (
	CategoryIncome        = "Income"
	CategoryFood          = "Food"
	CategoryGroceries     = "Groceries"
	CategoryTransport     = "Transport"
	CategoryHealth        = "Health"
	CategoryEntertainment = "Entertainment"
	CategoryShopping      = "Shopping"
	CategoryBills         = "Bills"
	CategoryEducation     = "Education"
	CategoryTravel        = "Travel"
	CategoryOthers        = "Others"
)

// Categories lists every known label, used to validate user input and model
// output. Order here carries no meaning; classifier rule order does.
var Categories = []string{
	CategoryIncome,
	CategoryFood,
	CategoryGroceries,
	CategoryTransport,
	CategoryHealth,
	CategoryEntertainment,
	CategoryShopping,
	CategoryBills,
	CategoryEducation,
	CategoryTravel,
	CategoryOthers,
}

// KnownCategory reports whether name is one of the fixed labels.
func KnownCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}
