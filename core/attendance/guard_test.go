package attendance

import (
	"testing"
	"time"
)

func TestNormalizeDate(t *testing.T) {
	cairo, err := time.LoadLocation("Africa/Cairo")
	if err != nil {
		t.Fatalf("loading location: %v", err)
	}

	// 01:30 in Cairo on March 3rd is still March 2nd in UTC; the org
	// timezone decides the calendar day.
	instant := time.Date(2026, 3, 3, 1, 30, 0, 0, cairo)
	got := NormalizeDate(instant, cairo)
	want := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NormalizeDate() = %v, want %v", got, want)
	}

	// same instant viewed from UTC lands on the previous day
	got = NormalizeDate(instant, time.UTC)
	want = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NormalizeDate() = %v, want %v", got, want)
	}
}

func TestFormStateAt(t *testing.T) {
	today := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)
	now := time.Now().UTC()

	tests := []struct {
		name string
		form DailyForm
		want FormState
	}{
		{
			name: "fresh same-day form",
			form: DailyForm{Date: today},
			want: StateEditable,
		},
		{
			name: "submitted same-day form",
			form: DailyForm{Date: today, Submitted: true, SubmittedAt: &now},
			want: StateSubmittedPendingReview,
		},
		{
			name: "unsubmitted past form",
			form: DailyForm{Date: yesterday},
			want: StateLocked,
		},
		{
			name: "submitted past form locks at midnight",
			form: DailyForm{Date: yesterday, Submitted: true, SubmittedAt: &now},
			want: StateLocked,
		},
		{
			name: "confirmed form",
			form: DailyForm{Date: yesterday, Submitted: true, AdminConfirmed: true},
			want: StateConfirmed,
		},
		{
			name: "confirmed wins over everything",
			form: DailyForm{Date: today, AdminConfirmed: true},
			want: StateConfirmed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.form.StateAt(today); got != tt.want {
				t.Errorf("StateAt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanEmployeeEdit(t *testing.T) {
	today := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	tests := []struct {
		name string
		form DailyForm
		want bool
	}{
		{name: "same-day unsubmitted", form: DailyForm{Date: today}, want: true},
		{name: "same-day submitted", form: DailyForm{Date: today, Submitted: true}, want: false},
		{name: "same-day confirmed", form: DailyForm{Date: today, AdminConfirmed: true}, want: false},
		{name: "past day, even unsubmitted", form: DailyForm{Date: yesterday}, want: false},
		{name: "future day", form: DailyForm{Date: today.AddDate(0, 0, 1)}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.form.CanEmployeeEdit(today); got != tt.want {
				t.Errorf("CanEmployeeEdit() = %v, want %v", got, tt.want)
			}
		})
	}
}
