package models

import "testing"

func TestChartPercentagesSumTo100(t *testing.T) {
	testCases := []struct {
		name string
		dist []HazardCount
	}{
		{
			name: "thirds",
			dist: []HazardCount{{"fire", 1}, {"electric", 1}, {"height", 1}},
		},
		{
			name: "sixths",
			dist: []HazardCount{{"fire", 1}, {"electric", 1}, {"height", 1}, {"edge", 1}, {"ppe", 1}, {"other", 1}},
		},
		{
			name: "skewed",
			dist: []HazardCount{{"fire", 7}, {"electric", 2}, {"height", 1}},
		},
		{
			name: "single",
			dist: []HazardCount{{"fire", 5}},
		},
	}

	for _, tc := range testCases {
		out := ChartPercentages(tc.dist)
		sum := 0
		for _, p := range out {
			sum += p.Percentage
		}
		if sum != 100 {
			t.Errorf("%s: percentages sum to %d, want 100 (%v)", tc.name, sum, out)
		}
	}
}

func TestChartPercentagesResidualGoesToLargest(t *testing.T) {
	out := ChartPercentages([]HazardCount{{"fire", 1}, {"electric", 1}, {"height", 1}})
	// Rounded thirds are 33 each; the extra point lands on the first
	// bucket since counts tie.
	if out[0].Percentage != 34 || out[1].Percentage != 33 || out[2].Percentage != 33 {
		t.Errorf("unexpected split: %v", out)
	}
}

func TestChartPercentagesEmpty(t *testing.T) {
	if out := ChartPercentages(nil); len(out) != 0 {
		t.Errorf("expected empty output, got %v", out)
	}
	// All-zero counts must not divide by zero.
	out := ChartPercentages([]HazardCount{{"fire", 0}})
	if out[0].Percentage != 0 {
		t.Errorf("zero-count bucket should be 0%%, got %v", out)
	}
}
