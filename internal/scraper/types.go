package scraper

// Listing is one search result as written to the output table.
type Listing struct {
	Name     string
	URL      string
	Price    string
	Location string
}

// Header is the first row of every result table.
var Header = []string{"Name", "URL", "Price", "Location"}

// Row returns the listing in Header order.
func (l Listing) Row() []string {
	return []string{l.Name, l.URL, l.Price, l.Location}
}

// SkippedNode records a listing node dropped because a rule failed on it.
type SkippedNode struct {
	Index int
	Field string
	Err   error
}

// Result is the outcome of extracting one page.
type Result struct {
	Listings []Listing
	Nodes    int
	Skipped  []SkippedNode
}
