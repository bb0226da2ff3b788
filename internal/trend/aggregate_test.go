package trend

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/thesavant42/arquivo-peaks/internal/models"
)

func TestAggregateMonthlyCounts(t *testing.T) {
	records := []models.RawRecord{
		rec("20200101120000"),
		rec("20200115080000"),
		rec("20200203000000"),
	}

	series, dropped, err := Aggregate(records)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if dropped != 0 {
		t.Errorf("dropped = %d, want 0", dropped)
	}

	want := []struct {
		month string
		count int
	}{
		{"2020-01", 2},
		{"2020-02", 1},
	}
	if len(series) != len(want) {
		t.Fatalf("len(series) = %d, want %d", len(series), len(want))
	}
	for i, w := range want {
		if series[i].Month.String() != w.month || series[i].Count != w.count {
			t.Errorf("series[%d] = (%s, %d), want (%s, %d)", i, series[i].Month, series[i].Count, w.month, w.count)
		}
		if len(series[i].Members) != series[i].Count {
			t.Errorf("series[%d] has %d members, count %d", i, len(series[i].Members), series[i].Count)
		}
	}
}

func TestAggregateDropsMalformed(t *testing.T) {
	records := []models.RawRecord{
		rec("20200101120000"),
		rec("2020010112000"),
		rec("abcdefghijklmn"),
		rec("20200102120000"),
	}

	series, dropped, err := Aggregate(records)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if dropped != 2 {
		t.Errorf("dropped = %d, want 2", dropped)
	}
	if TotalCount(series) != 2 {
		t.Errorf("TotalCount = %d, want 2", TotalCount(series))
	}
	for _, b := range series {
		for _, m := range b.Members {
			if ts := *m.Raw.Timestamp; ts == "2020010112000" || ts == "abcdefghijklmn" {
				t.Errorf("malformed timestamp %q ended up in bucket %s", ts, b.Month)
			}
		}
	}
}

func TestAggregateErrors(t *testing.T) {
	tests := []struct {
		name    string
		records []models.RawRecord
		wantErr error
	}{
		{"empty", nil, ErrNoTimestampField},
		{"no timestamp attribute", []models.RawRecord{{Title: strPtr("a")}, {Title: strPtr("b")}}, ErrNoTimestampField},
		{"all invalid", []models.RawRecord{rec("bad"), rec("20201301000000")}, ErrNoValidTimestamps},
		{"null timestamps", []models.RawRecord{{HasTimestamp: true, Title: strPtr("a")}, {HasTimestamp: true}}, ErrNoValidTimestamps},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series, _, err := Aggregate(tt.records)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Aggregate() error = %v, want %v", err, tt.wantErr)
			}
			if len(series) != 0 {
				t.Errorf("series should be empty on error, got %d buckets", len(series))
			}
		})
	}
}

// TestAggregatePartition checks that buckets partition the valid records exactly
func TestAggregatePartition(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var records []models.RawRecord
	valid := 0
	for i := 0; i < 500; i++ {
		if rng.Intn(5) == 0 {
			records = append(records, rec(fmt.Sprintf("x%013d", i)))
			continue
		}
		year := 2000 + rng.Intn(20)
		month := 1 + rng.Intn(12)
		day := 1 + rng.Intn(28)
		records = append(records, rec(fmt.Sprintf("%04d%02d%02d%02d%02d%02d", year, month, day, rng.Intn(24), rng.Intn(60), rng.Intn(60))))
		valid++
	}

	series, dropped, err := Aggregate(records)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if TotalCount(series) != valid {
		t.Errorf("TotalCount = %d, want %d", TotalCount(series), valid)
	}
	if dropped != len(records)-valid {
		t.Errorf("dropped = %d, want %d", dropped, len(records)-valid)
	}

	seen := make(map[models.YearMonth]bool)
	for i, b := range series {
		if seen[b.Month] {
			t.Errorf("month %s appears twice", b.Month)
		}
		seen[b.Month] = true
		if i > 0 && !series[i-1].Month.Before(b.Month) {
			t.Errorf("series not ascending at %d: %s then %s", i, series[i-1].Month, b.Month)
		}
		for _, m := range b.Members {
			if models.YearMonthOf(m.Time) != b.Month {
				t.Errorf("record %v placed in bucket %s", m.Time, b.Month)
			}
		}
	}
}

func TestGroupByMonthKeepsMemberOrder(t *testing.T) {
	records := []models.NormalizedRecord{
		{Raw: rec("20200131000000"), Time: time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC)},
		{Raw: rec("20191201000000"), Time: time.Date(2019, 12, 1, 0, 0, 0, 0, time.UTC)},
		{Raw: rec("20200101000000"), Time: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	series := GroupByMonth(records)
	if len(series) != 2 {
		t.Fatalf("len(series) = %d, want 2", len(series))
	}
	if series[0].Month.String() != "2019-12" {
		t.Errorf("first bucket = %s, want 2019-12", series[0].Month)
	}
	jan := series[1].Members
	if *jan[0].Raw.Timestamp != "20200131000000" || *jan[1].Raw.Timestamp != "20200101000000" {
		t.Errorf("member order changed: %q, %q", *jan[0].Raw.Timestamp, *jan[1].Raw.Timestamp)
	}
}
