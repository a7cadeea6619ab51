package services

import "testing"

func TestParseNotifyBefore(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want int
	}{
		{name: "empty", in: "", want: 0},
		{name: "whitespace", in: "   ", want: 0},
		{name: "bare_minutes", in: "45", want: 45},
		{name: "minutes_suffix", in: "15m", want: 15},
		{name: "minutes_spaced", in: "30 min", want: 30},
		{name: "minutes_long", in: "10 minutes", want: 10},
		{name: "hour_suffix", in: "1h", want: 60},
		{name: "hours_spaced", in: "2 hours", want: 120},
		{name: "hr_suffix", in: "3hr", want: 180},
		{name: "uppercase", in: "15M", want: 15},
		{name: "garbage", in: "soonish", want: 0},
		{name: "negative_rejected", in: "-5m", want: 0},
		{name: "trailing_junk", in: "15m later", want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseNotifyBefore(tc.in)
			if got != tc.want {
				t.Fatalf("ParseNotifyBefore(%q) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}
