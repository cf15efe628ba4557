package models

// LoanLimits are the maximum federal Direct Loan amounts per academic year.
type LoanLimits struct {
	FederalSubsidizedLoanByYear   []float64
	FederalUnsubsidizedLoanByYear []float64
}

// loanSchedule indexes annual limits by year in program: 1st, 2nd, 3rd and beyond.
type loanSchedule struct {
	annualTotal         [3]float64
	annualSubsidized    [3]float64
	aggregateTotal      float64
	aggregateSubsidized float64
}

var (
	dependentUndergraduate = loanSchedule{
		annualTotal:         [3]float64{5500, 6500, 7500},
		annualSubsidized:    [3]float64{3500, 4500, 5500},
		aggregateTotal:      31000,
		aggregateSubsidized: 23000,
	}
	independentUndergraduate = loanSchedule{
		annualTotal:         [3]float64{9500, 10500, 12500},
		annualSubsidized:    [3]float64{3500, 4500, 5500},
		aggregateTotal:      57500,
		aggregateSubsidized: 23000,
	}
	graduate = loanSchedule{
		annualTotal:         [3]float64{20500, 20500, 20500},
		annualSubsidized:    [3]float64{0, 0, 0},
		aggregateTotal:      138500,
		aggregateSubsidized: 0,
	}
)

// FederalLoanLimits derives per-year subsidized and unsubsidized limits for a
// program of the given length. Graduate levels ignore dependency status.
func FederalLoanLimits(level EducationLevel, isDependent bool, years int) LoanLimits {
	schedule := independentUndergraduate
	switch {
	case level.IsGraduate():
		schedule = graduate
	case isDependent:
		schedule = dependentUndergraduate
	}

	years = max(years, 0)
	limits := LoanLimits{
		FederalSubsidizedLoanByYear:   make([]float64, years),
		FederalUnsubsidizedLoanByYear: make([]float64, years),
	}

	var usedTotal, usedSubsidized float64
	for i := 0; i < years; i++ {
		idx := min(i, len(schedule.annualTotal)-1)

		total := max(min(schedule.annualTotal[idx], schedule.aggregateTotal-usedTotal), 0)
		subsidized := max(min(schedule.annualSubsidized[idx], schedule.aggregateSubsidized-usedSubsidized, total), 0)

		limits.FederalSubsidizedLoanByYear[i] = subsidized
		limits.FederalUnsubsidizedLoanByYear[i] = total - subsidized

		usedTotal += total
		usedSubsidized += subsidized
	}
	return limits
}
