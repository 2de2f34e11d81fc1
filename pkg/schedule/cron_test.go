package schedule

import (
	"testing"
	"time"
)

func TestCronParser_Validate(t *testing.T) {
	parser := NewCronParser()

	tests := []struct {
		name     string
		cronExpr string
		wantErr  bool
	}{
		{
			name:     "valid cron expression - weekdays at 9am",
			cronExpr: "0 9 * * 1-5",
			wantErr:  false,
		},
		{
			name:     "valid cron expression - every minute",
			cronExpr: "* * * * *",
			wantErr:  false,
		},
		{
			name:     "valid descriptor - hourly",
			cronExpr: "@hourly",
			wantErr:  false,
		},
		{
			name:     "valid descriptor - every interval",
			cronExpr: "@every 10m",
			wantErr:  false,
		},
		{
			name:     "invalid cron expression - wrong format",
			cronExpr: "invalid",
			wantErr:  true,
		},
		{
			name:     "invalid cron expression - too few fields",
			cronExpr: "0 9 *",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parser.Validate(tt.cronExpr)
			if (err != nil) != tt.wantErr {
				t.Errorf("CronParser.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCronParser_Next(t *testing.T) {
	parser := NewCronParser()

	// Monday, Jan 1, 2024, 08:00:00 UTC
	baseTime := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	tokyo := time.FixedZone("JST", 9*60*60)

	tests := []struct {
		name     string
		cronExpr string
		loc      *time.Location
		want     time.Time
	}{
		{
			name:     "hourly from UTC",
			cronExpr: "@hourly",
			loc:      nil,
			want:     time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		},
		{
			name:     "daily at midnight in JST",
			cronExpr: "0 0 * * *",
			loc:      tokyo,
			want:     time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parser.Next(tt.cronExpr, tt.loc, baseTime)
			if err != nil {
				t.Fatalf("CronParser.Next() unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("CronParser.Next() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := parser.Next("bogus", nil, baseTime); err == nil {
		t.Error("expected error for invalid expression")
	}
}
