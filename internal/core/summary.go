package core

// Statistics result shapes. All of these are derived on demand from the
// transaction set; nothing here is persisted or cached.

// CategoryTotal is an amount summed over one category.
type CategoryTotal struct {
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	Amount       Money  `json:"amount"`
}

// AccountTotal is an amount summed over one account.
type AccountTotal struct {
	AccountID   string `json:"accountId"`
	AccountName string `json:"accountName"`
	Currency    string `json:"currency"`
	Amount      Money  `json:"amount"`
}

// MonthlyBalance holds one month's totals for the monthly-balance view.
// Balance is incomes minus expenses.
type MonthlyBalance struct {
	Month    int   `json:"month"`
	Expenses Money `json:"expenses"`
	Incomes  Money `json:"incomes"`
	Balance  Money `json:"balance"`
}

// PeriodTotal is the expense total for one requested period, indexed by the
// caller's period order.
type PeriodTotal struct {
	PeriodIndex   int   `json:"periodIndex"`
	Start         Date  `json:"startDate"`
	End           Date  `json:"endDate"`
	TotalExpenses Money `json:"totalExpenses"`
}

// AnnualSummary is the year roll-up. TopExpenseCategories holds at most five
// entries sorted by amount descending, ties broken by category id so the
// order is stable across calls.
type AnnualSummary struct {
	Year                 int             `json:"year"`
	TotalExpenses        Money           `json:"totalExpenses"`
	TotalIncomes         Money           `json:"totalIncomes"`
	NetSavings           Money           `json:"netSavings"`
	TopExpenseCategories []CategoryTotal `json:"topExpenseCategories"`
}

// TypeTotal is a count and sum for one transaction type inside a breakdown.
type TypeTotal struct {
	Type   TransactionType `json:"type"`
	Count  int64           `json:"count"`
	Amount Money           `json:"amount"`
}

// MonthActivity is one month bucket inside a breakdown.
type MonthActivity struct {
	Year     int   `json:"year"`
	Month    int   `json:"month"`
	Expenses Money `json:"expenses"`
	Incomes  Money `json:"incomes"`
	Net      Money `json:"net"`
}

// Breakdown summarizes activity for a single account, category or recipient
// over a date range. ByMonth is populated for the category and recipient
// variants and covers every month of the requested range, empty months
// included.
type Breakdown struct {
	TransactionCount int64           `json:"transactionCount"`
	Expenses         Money           `json:"expenses"`
	Incomes          Money           `json:"incomes"`
	Net              Money           `json:"net"`
	ByType           []TypeTotal     `json:"byType"`
	ByMonth          []MonthActivity `json:"byMonth,omitempty"`
}
