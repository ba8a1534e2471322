package sweeper

import (
	"testing"
	"time"
)

func TestNextDue(t *testing.T) {
	from := time.Date(2025, 6, 1, 12, 3, 0, 0, time.UTC)

	tests := []struct {
		name string
		expr string
		want time.Time
	}{
		{
			name: "every five minutes",
			expr: "*/5 * * * *",
			want: time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC),
		},
		{
			name: "hourly",
			expr: "0 * * * *",
			want: time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC),
		},
		{
			name: "daily at midnight",
			expr: "0 0 * * *",
			want: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextDue(tt.expr, from)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextDue(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestNextDue_InvalidExpr(t *testing.T) {
	if _, err := NextDue("not a cron", time.Now()); err == nil {
		t.Error("expected error for invalid expression")
	}
}

func TestValidateCronExpr(t *testing.T) {
	if err := ValidateCronExpr(DefaultCronExpr); err != nil {
		t.Errorf("default expression should be valid: %v", err)
	}
	if err := ValidateCronExpr("61 * * * *"); err == nil {
		t.Error("expected error for out-of-range minute")
	}
}
