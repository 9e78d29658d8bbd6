package contracts

import "fmt"

// Period is the trailing window requested from a provider
type Period string

const (
	Period1Mo Period = "1mo"
	Period3Mo Period = "3mo"
	Period6Mo Period = "6mo"
	Period1Y  Period = "1y"
)

// ParsePeriod validates a period string
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case Period1Mo, Period3Mo, Period6Mo, Period1Y:
		return Period(s), nil
	default:
		return "", NewFetchError("", KindInvalidInput,
			fmt.Sprintf("unsupported period %q (want 1mo, 3mo, 6mo or 1y)", s))
	}
}

// Days returns the calendar length of the trailing window
func (p Period) Days() int {
	switch p {
	case Period1Mo:
		return 30
	case Period3Mo:
		return 90
	case Period6Mo:
		return 180
	case Period1Y:
		return 365
	default:
		return 90
	}
}

// MinBars returns the minimum number of trading sessions a record must
// cover for the period, below which it is marked partial. Roughly 2/3 of
// the calendar window (weekends and holidays removed).
func (p Period) MinBars() int {
	return p.Days() * 2 / 3
}
