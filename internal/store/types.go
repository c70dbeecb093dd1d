package store

// Counts holds the row counts of the domain tables at one point in time.
type Counts struct {
	Accounts int64
	Scans    int64
	Scores   int64
}

// Empty reports whether both primary domain tables hold no rows. Scores
// are derived data and deliberately excluded from the data-loss signature.
func (c Counts) Empty() bool {
	return c.Accounts == 0 && c.Scans == 0
}
