package payroll

import (
	"github.com/shopspring/decimal"

	"profitlens/internal/platform/money"
)

var one = decimal.NewFromInt(1)

type Proration struct {
	WorkingDays    decimal.Decimal
	DailyRate      decimal.Decimal
	ProratedSalary decimal.Decimal
	OvertimePay    decimal.Decimal
	GrossEarnings  decimal.Decimal
	Defaulted      bool
}

// Prorate scales the monthly salary to the days present. Fewer than one
// working day is treated as one and reported through Defaulted. Salary and
// overtime are computed from the unrounded daily rate.
func Prorate(in Input) Proration {
	workingDays := in.WorkingDays
	defaulted := false
	if workingDays.LessThan(one) {
		workingDays = one
		defaulted = true
	}
	base := money.NonNegative(in.BaseSalary)
	dailyRate := base.Div(workingDays)
	prorated := money.Round(base.Mul(money.NonNegative(in.PresentDays)).Div(workingDays))
	overtime := money.Round(base.Mul(money.NonNegative(in.OTDays)).Div(workingDays))
	return Proration{
		WorkingDays:    workingDays,
		DailyRate:      money.Round(dailyRate),
		ProratedSalary: prorated,
		OvertimePay:    overtime,
		GrossEarnings:  prorated.Add(overtime),
		Defaulted:      defaulted,
	}
}

type DeductionSet struct {
	PFContribution   decimal.Decimal
	ESIContribution  decimal.Decimal
	CustomDeductions decimal.Decimal
	TotalDeductions  decimal.Decimal
}

// Deductions applies PF to the prorated salary and ESI to gross earnings, then
// adds advances, other deductions and every number-typed custom field.
func Deductions(p Proration, in Input, settings Settings) DeductionSet {
	pf := money.Round(money.Percent(p.ProratedSalary, money.NonNegative(settings.PFPercentage)))
	esi := money.Round(money.Percent(p.GrossEarnings, money.NonNegative(settings.ESIPercentage)))
	custom := CustomNumericSum(in.CustomFields, settings)
	total := money.Round(money.NonNegative(in.Advances)).
		Add(money.Round(money.NonNegative(in.OtherDeductions))).
		Add(pf).
		Add(esi).
		Add(custom)
	return DeductionSet{
		PFContribution:   pf,
		ESIContribution:  esi,
		CustomDeductions: custom,
		TotalDeductions:  total,
	}
}

// CustomNumericSum adds the values of configured number fields. Values that do
// not parse count as zero.
func CustomNumericSum(values map[string]string, settings Settings) decimal.Decimal {
	sum := decimal.Zero
	for _, id := range settings.NumberFields() {
		if d, ok := money.Parse(values[id]); ok {
			sum = sum.Add(money.NonNegative(d))
		}
	}
	return money.Round(sum)
}

// Compute derives the full breakdown. It never fails; a negative net is kept
// and flagged.
func Compute(in Input, settings Settings) Breakdown {
	p := Prorate(in)
	ded := Deductions(p, in, settings)
	net := p.GrossEarnings.Sub(ded.TotalDeductions)

	return Breakdown{
		WorkingDaysUsed:  p.WorkingDays,
		DailyRate:        p.DailyRate,
		ProratedSalary:   p.ProratedSalary,
		OvertimePay:      p.OvertimePay,
		GrossEarnings:    p.GrossEarnings,
		PFPercentage:     settings.PFPercentage,
		ESIPercentage:    settings.ESIPercentage,
		PFContribution:   ded.PFContribution,
		ESIContribution:  ded.ESIContribution,
		CustomDeductions: ded.CustomDeductions,
		TotalDeductions:  ded.TotalDeductions,
		NetPayment:       net,
		Warnings:         warningsFor(p.Defaulted, net),
	}
}

func warningsFor(defaulted bool, net decimal.Decimal) []string {
	var warnings []string
	if defaulted {
		warnings = append(warnings, WarningWorkingDaysDefaulted)
	}
	if net.IsNegative() {
		warnings = append(warnings, WarningNegativeNet)
	}
	return warnings
}

// recordWarnings rebuilds the warnings of a stored record from its saved figures.
func recordWarnings(rec Record) []string {
	return warningsFor(Prorate(rec.Input).Defaulted, rec.NetPayment)
}
