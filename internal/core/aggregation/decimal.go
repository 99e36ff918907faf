package aggregation

import "github.com/shopspring/decimal"

// ExtractDecimal pulls a numeric value from an event's properties by field name.
// ok is false if the field is missing, empty, or not a recognized numeric type.
// JSON numbers unmarshal to float64 in Go; that's the common path.
func ExtractDecimal(props map[string]interface{}, field string) (decimal.Decimal, bool) {
	if field == "" {
		return decimal.Zero, false
	}
	v, ok := props[field]
	if !ok {
		return decimal.Zero, false
	}
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val), true
	case float32:
		return decimal.NewFromFloat(float64(val)), true
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int64:
		return decimal.NewFromInt(val), true
	case int32:
		return decimal.NewFromInt(int64(val)), true
	case string:
		d, err := decimal.NewFromString(val)
		if err == nil {
			return d, true
		}
	}
	return decimal.Zero, false
}

// Round2 rounds half away from zero to two decimal places.
func Round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// Percent returns part/total × 100 rounded to two decimals, or 0 when total is 0.
func Percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round2(decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))))
}

// Mean returns the rounded arithmetic mean of samples, or 0 when there are none.
func Mean(samples []decimal.Decimal) float64 {
	avg, ok := Reduce(OpAvg, samples)
	if !ok {
		return 0
	}
	return Round2(avg)
}
