package models

// ChartPercentage is one slice of a ring/pie chart.
type ChartPercentage struct {
	Type       string `json:"type"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// ChartPercentages converts a hazard distribution into whole-number
// percentages that sum to exactly 100. Each bucket's share is rounded
// and the residual goes to the largest bucket (first of equals) so the
// chart always closes.
func ChartPercentages(dist []HazardCount) []ChartPercentage {
	if len(dist) == 0 {
		return []ChartPercentage{}
	}

	total := 0
	for _, d := range dist {
		total += d.Count
	}

	out := make([]ChartPercentage, len(dist))
	sum := 0
	largest := 0
	for i, d := range dist {
		pct := 0
		if total > 0 {
			pct = int(float64(d.Count)/float64(total)*100 + 0.5)
		}
		out[i] = ChartPercentage{Type: d.Type, Count: d.Count, Percentage: pct}
		sum += pct
		if d.Count > dist[largest].Count {
			largest = i
		}
	}

	if total > 0 && sum != 100 {
		out[largest].Percentage += 100 - sum
	}
	return out
}
