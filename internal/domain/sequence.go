package domain

// Sequence domains, one counter row each
const (
	SequenceDomainQuotations = "quotations"
	SequenceDomainLoans      = "loans"
)

// SequencePrefix maps a counter domain to its number prefix.
func SequencePrefix(domain string) string {
	switch domain {
	case SequenceDomainQuotations:
		return "Q"
	case SequenceDomainLoans:
		return "L"
	}
	return ""
}

// SequenceCounter is the year-scoped counter row for one domain.
// Count strictly increases by 1 per allocation within a year and resets to 1
// on the first allocation of a new year.
type SequenceCounter struct {
	Domain string `json:"domain" db:"domain"`
	Year   int    `json:"year" db:"year"`
	Count  int    `json:"count" db:"count"`
}
