package stats

import (
	"fmt"
	"io"
	"sort"

	"github.com/dhcgn/emltouch/model"
)

// Summary tallies the outcomes of a run. It is a plain value: Record returns
// an updated copy, so partial summaries can be built independently and
// combined with Merge.
type Summary struct {
	Succeeded  int
	Failed     int
	Total      int
	Applied    int
	WouldApply int
	Filtered   int
	Reasons    map[model.Reason]int
	LastError  error
}

// Record folds a single outcome into the summary.
func (s Summary) Record(o model.Outcome) Summary {
	s.Total++
	switch o.Kind {
	case model.OutcomeApplied:
		s.Succeeded++
		s.Applied++
	case model.OutcomeWouldApply:
		s.Succeeded++
		s.WouldApply++
	default:
		s.Failed++
		s.Reasons = s.withReason(o.Reason, 1)
		if o.Err != nil {
			s.LastError = o.Err
		}
	}
	return s
}

// RecordFiltered counts a file that was excluded by the header filter. It is
// not part of Total.
func (s Summary) RecordFiltered() Summary {
	s.Filtered++
	return s
}

// Merge combines two summaries. LastError is taken from other when set.
func (s Summary) Merge(other Summary) Summary {
	s.Succeeded += other.Succeeded
	s.Failed += other.Failed
	s.Total += other.Total
	s.Applied += other.Applied
	s.WouldApply += other.WouldApply
	s.Filtered += other.Filtered
	for reason, n := range other.Reasons {
		s.Reasons = s.withReason(reason, n)
	}
	if other.LastError != nil {
		s.LastError = other.LastError
	}
	return s
}

// withReason returns a copy of the reason map with n added to reason, so
// summaries never share a map.
func (s Summary) withReason(reason model.Reason, n int) map[model.Reason]int {
	out := make(map[model.Reason]int, len(s.Reasons)+1)
	for k, v := range s.Reasons {
		out[k] = v
	}
	out[reason] += n
	return out
}

// Consistent reports whether succeeded and failed add up to the total.
func (s Summary) Consistent() bool {
	return s.Succeeded+s.Failed == s.Total
}

func (s Summary) LogAttrs() []any {
	attrs := []any{
		"succeeded", s.Succeeded,
		"failed", s.Failed,
		"total", s.Total,
		"applied", s.Applied,
		"wouldApply", s.WouldApply,
		"filtered", s.Filtered,
	}
	for _, reason := range s.SortedReasons() {
		attrs = append(attrs, string(reason), s.Reasons[reason])
	}
	if s.LastError != nil {
		attrs = append(attrs, "lastError", s.LastError.Error())
	}
	return attrs
}

// SortedReasons lists the failure reasons present in the summary by name.
func (s Summary) SortedReasons() []model.Reason {
	reasons := make([]model.Reason, 0, len(s.Reasons))
	for reason := range s.Reasons {
		reasons = append(reasons, reason)
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
	return reasons
}

// Pair is a key with its count.
type Pair struct {
	Key   string
	Value int
}

// Top returns the entries of m ordered by count, highest first. Ties are
// broken by key so output is stable.
func Top(m map[string]int, limit int) []Pair {
	pairs := make([]Pair, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, Pair{k, v})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Value != pairs[j].Value {
			return pairs[i].Value > pairs[j].Value
		}
		return pairs[i].Key < pairs[j].Key
	})

	if limit >= 0 && limit < len(pairs) {
		pairs = pairs[:limit]
	}
	return pairs
}

// PrettyPrintTop prints the top N most frequent items in a map.
func PrettyPrintTop(w io.Writer, m map[string]int, limit int) {
	for i, p := range Top(m, limit) {
		fmt.Fprintf(w, "%d. %s (%d)\n", i+1, p.Key, p.Value)
	}
}
