package services

import (
	"context"

	"centime/internal/core"
	"centime/internal/storage"
)

// StatisticsService derives every view on demand from the transaction set.
// Nothing here is cached: account balances are the only denormalized numbers
// in the system and they live with the accounts.
type StatisticsService struct {
	store storage.Store
}

func NewStatisticsService(store storage.Store) *StatisticsService {
	return &StatisticsService{store: store}
}

// topExpenseCategoryLimit caps the annual summary's category ranking.
const topExpenseCategoryLimit = 5

// ExpensesByCategory totals the user's expenses per category over the
// inclusive date range.
func (s *StatisticsService) ExpensesByCategory(ctx context.Context, userID string, period core.Period) ([]core.CategoryTotal, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	totals, err := s.store.SumByCategory(ctx, userID, core.TypeExpense, period.Start, period.End)
	if err != nil {
		return nil, boundary(ctx, "sum expenses by category", err)
	}
	return totals, nil
}

// IncomesByCategory totals the user's incomes per category over the
// inclusive date range.
func (s *StatisticsService) IncomesByCategory(ctx context.Context, userID string, period core.Period) ([]core.CategoryTotal, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	totals, err := s.store.SumByCategory(ctx, userID, core.TypeIncome, period.Start, period.End)
	if err != nil {
		return nil, boundary(ctx, "sum incomes by category", err)
	}
	return totals, nil
}

// ExpensesByAccount totals the user's expenses per account over the
// inclusive date range.
func (s *StatisticsService) ExpensesByAccount(ctx context.Context, userID string, period core.Period) ([]core.AccountTotal, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	totals, err := s.store.SumByAccount(ctx, userID, core.TypeExpense, period.Start, period.End)
	if err != nil {
		return nil, boundary(ctx, "sum expenses by account", err)
	}
	return totals, nil
}

// MonthlyBalance returns twelve entries, one per month of the year, months
// with no activity included with zero totals.
func (s *StatisticsService) MonthlyBalance(ctx context.Context, userID string, year int) ([]core.MonthlyBalance, error) {
	balances := make([]core.MonthlyBalance, 0, 12)
	for month := 1; month <= 12; month++ {
		from, to := core.MonthRange(year, month)
		expenses, err := s.store.SumAmounts(ctx, userID, core.TypeExpense, from, to)
		if err != nil {
			return nil, boundary(ctx, "sum monthly expenses", err)
		}
		incomes, err := s.store.SumAmounts(ctx, userID, core.TypeIncome, from, to)
		if err != nil {
			return nil, boundary(ctx, "sum monthly incomes", err)
		}
		balances = append(balances, core.MonthlyBalance{
			Month:    month,
			Expenses: expenses,
			Incomes:  incomes,
			Balance:  incomes.Sub(expenses),
		})
	}
	return balances, nil
}

// ExpenseTrends totals expenses over each requested period, preserving the
// caller's period order via PeriodIndex. Periods may overlap.
func (s *StatisticsService) ExpenseTrends(ctx context.Context, userID string, periods []core.Period) ([]core.PeriodTotal, error) {
	totals := make([]core.PeriodTotal, 0, len(periods))
	for i, p := range periods {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		expenses, err := s.store.SumAmounts(ctx, userID, core.TypeExpense, p.Start, p.End)
		if err != nil {
			return nil, boundary(ctx, "sum period expenses", err)
		}
		totals = append(totals, core.PeriodTotal{
			PeriodIndex:   i,
			Start:         p.Start,
			End:           p.End,
			TotalExpenses: expenses,
		})
	}
	return totals, nil
}

// AnnualSummary rolls up a calendar year: totals, net savings and the top
// expense categories.
func (s *StatisticsService) AnnualSummary(ctx context.Context, userID string, year int) (core.AnnualSummary, error) {
	from, to := core.YearRange(year)
	expenses, err := s.store.SumAmounts(ctx, userID, core.TypeExpense, from, to)
	if err != nil {
		return core.AnnualSummary{}, boundary(ctx, "sum annual expenses", err)
	}
	incomes, err := s.store.SumAmounts(ctx, userID, core.TypeIncome, from, to)
	if err != nil {
		return core.AnnualSummary{}, boundary(ctx, "sum annual incomes", err)
	}
	top, err := s.store.TopExpenseCategories(ctx, userID, from, to, topExpenseCategoryLimit)
	if err != nil {
		return core.AnnualSummary{}, boundary(ctx, "rank expense categories", err)
	}
	return core.AnnualSummary{
		Year:                 year,
		TotalExpenses:        expenses,
		TotalIncomes:         incomes,
		NetSavings:           incomes.Sub(expenses),
		TopExpenseCategories: top,
	}, nil
}

// AccountBreakdown summarizes one account's activity over the range. The
// account variant has no per-month buckets.
func (s *StatisticsService) AccountBreakdown(ctx context.Context, accountID, userID string, period core.Period) (core.Breakdown, error) {
	if _, err := loadOwned(ctx, s.store.AccountByID, accountID, userID, "account"); err != nil {
		return core.Breakdown{}, boundary(ctx, "account breakdown", err)
	}
	transactions, err := s.inRange(ctx, userID, period, func(t core.Transaction) bool {
		return t.AccountID == accountID
	})
	if err != nil {
		return core.Breakdown{}, err
	}
	return breakdown(transactions, core.Period{}), nil
}

// CategoryBreakdown summarizes one category's activity over the range, with
// monthly buckets covering the whole range.
func (s *StatisticsService) CategoryBreakdown(ctx context.Context, categoryID, userID string, period core.Period) (core.Breakdown, error) {
	if _, err := loadOwned(ctx, s.store.CategoryByID, categoryID, userID, "category"); err != nil {
		return core.Breakdown{}, boundary(ctx, "category breakdown", err)
	}
	transactions, err := s.inRange(ctx, userID, period, func(t core.Transaction) bool {
		return t.CategoryID == categoryID
	})
	if err != nil {
		return core.Breakdown{}, err
	}
	return breakdown(transactions, period), nil
}

// RecipientBreakdown summarizes one recipient's activity over the range,
// with monthly buckets covering the whole range.
func (s *StatisticsService) RecipientBreakdown(ctx context.Context, recipientID, userID string, period core.Period) (core.Breakdown, error) {
	if _, err := loadOwned(ctx, s.store.RecipientByID, recipientID, userID, "recipient"); err != nil {
		return core.Breakdown{}, boundary(ctx, "recipient breakdown", err)
	}
	transactions, err := s.inRange(ctx, userID, period, func(t core.Transaction) bool {
		return t.RecipientID == recipientID
	})
	if err != nil {
		return core.Breakdown{}, err
	}
	return breakdown(transactions, period), nil
}

func (s *StatisticsService) inRange(ctx context.Context, userID string, period core.Period, keep func(core.Transaction) bool) ([]core.Transaction, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	all, err := s.store.TransactionsInRange(ctx, userID, period.Start, period.End)
	if err != nil {
		return nil, boundary(ctx, "load transactions in range", err)
	}
	matched := all[:0:0]
	for _, t := range all {
		if keep(t) {
			matched = append(matched, t)
		}
	}
	return matched, nil
}

// breakdown folds transactions into totals, per-type counts and, when months
// is a non-zero period, per-month buckets spanning the whole period.
func breakdown(transactions []core.Transaction, months core.Period) core.Breakdown {
	b := core.Breakdown{
		ByType: []core.TypeTotal{
			{Type: core.TypeIncome},
			{Type: core.TypeExpense},
		},
	}

	var buckets map[[2]int]*core.MonthActivity
	if !months.Start.IsZero() {
		buckets = make(map[[2]int]*core.MonthActivity)
		for _, ym := range core.MonthsBetween(months.Start, months.End) {
			activity := &core.MonthActivity{Year: ym[0], Month: ym[1]}
			buckets[ym] = activity
			b.ByMonth = append(b.ByMonth, core.MonthActivity{Year: ym[0], Month: ym[1]})
		}
	}

	for _, t := range transactions {
		b.TransactionCount++
		b.Net = b.Net.Add(t.Signed())
		slot := 1
		if t.Type == core.TypeIncome {
			slot = 0
			b.Incomes = b.Incomes.Add(t.Amount)
		} else {
			b.Expenses = b.Expenses.Add(t.Amount)
		}
		b.ByType[slot].Count++
		b.ByType[slot].Amount = b.ByType[slot].Amount.Add(t.Amount)

		if buckets != nil {
			key := [2]int{t.Date.Year(), int(t.Date.Month())}
			if activity, ok := buckets[key]; ok {
				if t.Type == core.TypeIncome {
					activity.Incomes = activity.Incomes.Add(t.Amount)
				} else {
					activity.Expenses = activity.Expenses.Add(t.Amount)
				}
				activity.Net = activity.Net.Add(t.Signed())
			}
		}
	}

	for i := range b.ByMonth {
		key := [2]int{b.ByMonth[i].Year, b.ByMonth[i].Month}
		b.ByMonth[i] = *buckets[key]
	}
	return b
}
