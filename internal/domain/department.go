package domain

// Department is an immutable configuration record describing a civic
// agency. Loaded once at startup and never mutated afterwards; keywords
// are stored lowercase for case-insensitive matching.
type Department struct {
	ID       string
	Name     string
	Keywords []string
	SLAHours int
	Contact  string
}
