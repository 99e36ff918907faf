package aggregation

// Supported measure operators.
// count is always computed; the others apply to a numeric property.
const (
	OpCount = "count"
	OpSum   = "sum"
	OpMin   = "min"
	OpMax   = "max"
	OpAvg   = "avg"
)

// Ranked is one entry of a top-N summary.
type Ranked struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
