package aggregation

import (
	"github.com/shopspring/decimal"
)

// Aggregator defines the reduce semantics of a measure operator.
// To add a new operator: implement this interface and register it in Operators.
type Aggregator interface {
	// Initial returns the aggregate value after the very first sample.
	// count → 1; sum/min/max → the incoming value itself.
	Initial(incoming decimal.Decimal) decimal.Decimal

	// Apply folds an incoming value into an existing aggregate.
	Apply(current, incoming decimal.Decimal) decimal.Decimal
}

// Operators is the registry of foldable operators.
// avg is derived from sum and count in Reduce and has no entry here.
var Operators = map[string]Aggregator{
	OpCount: countAgg{},
	OpSum:   sumAgg{},
	OpMin:   minAgg{},
	OpMax:   maxAgg{},
}

// ValidOperator reports whether op is a supported measure operator.
func ValidOperator(op string) bool {
	if op == OpAvg {
		return true
	}
	_, ok := Operators[op]
	return ok
}

// Reduce folds samples with op. ok is false when there are no samples or the
// operator is unknown.
func Reduce(op string, samples []decimal.Decimal) (decimal.Decimal, bool) {
	if len(samples) == 0 {
		return decimal.Zero, false
	}

	if op == OpAvg {
		sum, _ := Reduce(OpSum, samples)
		return sum.Div(decimal.NewFromInt(int64(len(samples)))), true
	}

	agg, ok := Operators[op]
	if !ok {
		return decimal.Zero, false
	}
	acc := agg.Initial(samples[0])
	for _, v := range samples[1:] {
		acc = agg.Apply(acc, v)
	}
	return acc, true
}

// countAgg increments by 1 per sample. The incoming value is ignored.
type countAgg struct{}

func (countAgg) Initial(_ decimal.Decimal) decimal.Decimal    { return decimal.NewFromInt(1) }
func (countAgg) Apply(cur, _ decimal.Decimal) decimal.Decimal { return cur.Add(decimal.NewFromInt(1)) }

// sumAgg accumulates the sum of incoming values.
type sumAgg struct{}

func (sumAgg) Initial(v decimal.Decimal) decimal.Decimal      { return v }
func (sumAgg) Apply(cur, inc decimal.Decimal) decimal.Decimal { return cur.Add(inc) }

// minAgg tracks the minimum value seen.
type minAgg struct{}

func (minAgg) Initial(v decimal.Decimal) decimal.Decimal { return v }
func (minAgg) Apply(cur, inc decimal.Decimal) decimal.Decimal {
	if inc.LessThan(cur) {
		return inc
	}
	return cur
}

// maxAgg tracks the maximum value seen.
type maxAgg struct{}

func (maxAgg) Initial(v decimal.Decimal) decimal.Decimal { return v }
func (maxAgg) Apply(cur, inc decimal.Decimal) decimal.Decimal {
	if inc.GreaterThan(cur) {
		return inc
	}
	return cur
}
