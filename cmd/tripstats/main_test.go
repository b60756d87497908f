package main

import "testing"

func TestSummaryFileName(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"trips/ride_001.csv", "ride_001_summary.csv"},
		{"/data/trip.CSV", "trip_summary.csv"},
		{"bare", "bare_summary.csv"},
	}
	for _, tt := range cases {
		if got := summaryFileName(tt.path); got != tt.want {
			t.Errorf("summaryFileName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
