// backend-go/internal/forecast/abc.go
package forecast

import "sort"

// ABCEntry places one contributor inside an ABC ranking.
type ABCEntry struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Share    float64 `json:"share"`
	CumShare float64 `json:"cum_share"`
	Class    string  `json:"class"`
}

const (
	abcClassACut = 0.80
	abcClassBCut = 0.95
)

// ClassifyABC ranks contributors by value descending and assigns Pareto
// classes by cumulative share: A up to 80%, B up to 95%, C for the tail.
// A zero grand total leaves every share at 0 and every entry in class C.
func ClassifyABC(values map[string]float64) []ABCEntry {
	entries := make([]ABCEntry, 0, len(values))
	var total float64
	for name, v := range values {
		entries = append(entries, ABCEntry{Name: name, Value: v})
		total += v
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].Name < entries[j].Name
	})

	var cum float64
	for i := range entries {
		if total > 0 {
			entries[i].Share = entries[i].Value / total
			cum += entries[i].Share
			entries[i].CumShare = cum
		}

		switch {
		case total > 0 && entries[i].CumShare <= abcClassACut:
			entries[i].Class = "A"
		case total > 0 && entries[i].CumShare <= abcClassBCut:
			entries[i].Class = "B"
		default:
			entries[i].Class = "C"
		}
	}

	return entries
}
