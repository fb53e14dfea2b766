package models

import "testing"

func TestNormalizeStatus(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"submitted", "submitted"},
		{"processing", "processing"},
		{"completed", "completed"},
		{"pending", "submitted"},
		{"assigned", "processing"},
		{"rejected", "completed"},
		{"bogus", "bogus"},
	}

	for _, tc := range testCases {
		if got := NormalizeStatus(tc.in); got != tc.want {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStatusRankForwardOnly(t *testing.T) {
	if StatusRank(StatusSubmitted) >= StatusRank(StatusProcessing) {
		t.Error("submitted should rank below processing")
	}
	if StatusRank(StatusProcessing) >= StatusRank(StatusCompleted) {
		t.Error("processing should rank below completed")
	}
	// Aliases rank as their canonical status.
	if StatusRank("assigned") != StatusRank(StatusProcessing) {
		t.Error("assigned should rank as processing")
	}
	if StatusRank("nonsense") != -1 {
		t.Error("unknown status should rank -1")
	}
}

func TestStatusWithAliases(t *testing.T) {
	got := StatusWithAliases(StatusCompleted)
	want := map[string]bool{"completed": true, "rejected": true}
	if len(got) != len(want) {
		t.Fatalf("StatusWithAliases(completed) = %v", got)
	}
	for _, s := range got {
		if !want[s] {
			t.Errorf("unexpected stored value %q", s)
		}
	}
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range []string{"submitted", "processing", "completed", "pending", "assigned", "rejected"} {
		if !IsValidStatus(s) {
			t.Errorf("IsValidStatus(%q) = false, want true", s)
		}
	}
	if IsValidStatus("archived") {
		t.Error("IsValidStatus(archived) = true, want false")
	}
}
