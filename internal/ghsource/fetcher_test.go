package ghsource

import "testing"

func TestIsDocument(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"budget-2025.md", true},
		{"notice.txt", true},
		{"scan.pdf", false},
		{"README", false},
		{"chart.png", false},
	}

	for _, tc := range cases {
		if got := isDocument(tc.name); got != tc.want {
			t.Errorf("isDocument(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}
