package aggregation

import "sort"

// Counter tallies keys and remembers the order in which each key first appeared,
// so top-N ties resolve deterministically.
type Counter struct {
	counts map[string]int
	order  []string
}

func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

func (c *Counter) Add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// Len is the number of distinct keys.
func (c *Counter) Len() int {
	return len(c.order)
}

func (c *Counter) Count(key string) int {
	return c.counts[key]
}

// Top returns up to n keys by count descending. Ties keep first-seen order.
// n <= 0 returns every key.
func (c *Counter) Top(n int) []Ranked {
	out := make([]Ranked, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, Ranked{Name: k, Count: c.counts[k]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
