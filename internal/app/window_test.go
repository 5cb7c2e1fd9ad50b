package app_test

import (
	"testing"
	"time"

	"student_outreach_engine/internal/app"
)

func TestNewSendWindowValidation(t *testing.T) {
	if _, err := app.NewSendWindow(20, 9, time.UTC); err == nil {
		t.Error("start after end must be rejected")
	}
	if _, err := app.NewSendWindow(-1, 20, time.UTC); err == nil {
		t.Error("negative start hour must be rejected")
	}
	if _, err := app.NewSendWindow(9, 25, time.UTC); err == nil {
		t.Error("end hour past midnight must be rejected")
	}
	if _, err := app.NewSendWindow(9, 20, time.UTC); err != nil {
		t.Errorf("09:00-20:00 should be valid: %v", err)
	}
}

func TestSendWindowAdjust(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatal(err)
	}
	window, err := app.NewSendWindow(9, 20, loc)
	if err != nil {
		t.Fatal(err)
	}

	at := func(hour, min int) time.Time {
		return time.Date(2024, time.May, 10, hour, min, 0, 0, loc)
	}

	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"before window moves to same-day start", at(8, 0), at(9, 0)},
		{"window start passes through", at(9, 0), at(9, 0)},
		{"inside window unchanged", at(14, 37), at(14, 37)},
		{"last minute inside", at(19, 59), at(19, 59)},
		{"window end moves to next-day start", at(20, 0), at(9, 0).AddDate(0, 0, 1)},
		{"late evening moves to next-day start", at(21, 30), at(9, 0).AddDate(0, 0, 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := window.Adjust(tc.in)
			if !got.Equal(tc.want) {
				t.Errorf("Adjust(%s) = %s, want %s", tc.in.Format(time.RFC3339), got.Format(time.RFC3339), tc.want.Format(time.RFC3339))
			}
		})
	}
}

func TestSendWindowAdjustConvertsZone(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatal(err)
	}
	window, err := app.NewSendWindow(9, 20, loc)
	if err != nil {
		t.Fatal(err)
	}

	// 23:00 UTC is 08:00 next day in Tokyo: before the window, so the
	// adjusted time is that day's 09:00 Tokyo.
	in := time.Date(2024, time.May, 9, 23, 0, 0, 0, time.UTC)
	want := time.Date(2024, time.May, 10, 9, 0, 0, 0, loc)
	if got := window.Adjust(in); !got.Equal(want) {
		t.Errorf("Adjust(%s) = %s, want %s", in.Format(time.RFC3339), got.Format(time.RFC3339), want.Format(time.RFC3339))
	}
}
