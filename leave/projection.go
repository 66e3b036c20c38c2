package leave

import "github.com/shopspring/decimal"

// =============================================================================
// SUMMARY - Read-only projection for the display layer
// =============================================================================

// CategorySummary is one row of the balance summary: the four figures the
// UI renders per category. Amounts stay as decimals; formatting and locale
// are the caller's concern.
type CategorySummary struct {
	Category      Category        `json:"category"`
	Label         string          `json:"label"`
	TotalEntitled decimal.Decimal `json:"totalEntitled"`
	Accrued       decimal.Decimal `json:"accrued"`
	Used          decimal.Decimal `json:"used"`
	Remaining     decimal.Decimal `json:"remaining"`
}

// Summary is the read-only projection of one employee's balance.
type Summary struct {
	EmployeeID      EmployeeID        `json:"employeeId"`
	EmployeeName    string            `json:"employeeName"`
	PolicyID        PolicyID          `json:"policyId"`
	HireDate        Date              `json:"hireDate"`
	LastAccrualDate Date              `json:"lastAccrualDate"`
	Categories      []CategorySummary `json:"categories"`
}

// Summarize projects the balance into display form, categories in the
// fixed enumeration order, absent categories omitted.
func (b *Balance) Summarize() Summary {
	s := Summary{
		EmployeeID:      b.EmployeeID,
		EmployeeName:    b.EmployeeName,
		PolicyID:        b.PolicyID,
		HireDate:        b.HireDate,
		LastAccrualDate: b.LastAccrualDate,
	}

	for _, c := range Categories() {
		st, ok := b.Categories[c]
		if !ok {
			continue
		}
		s.Categories = append(s.Categories, CategorySummary{
			Category:      c,
			Label:         c.Label(),
			TotalEntitled: st.TotalEntitled,
			Accrued:       st.Accrued,
			Used:          st.Used,
			Remaining:     st.Remaining,
		})
	}
	return s
}
