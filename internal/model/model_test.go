package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func hm(h, m int) time.Time {
	return time.Date(2024, time.March, 2, h, m, 0, 0, time.UTC)
}

func TestViewRangeOverlaps(t *testing.T) {
	r := ViewRange{Start: hm(10, 0), End: hm(11, 59)}
	for _, tc := range []struct {
		start, end time.Time
		want       bool
	}{
		{hm(9, 0), hm(10, 0), false},
		{hm(9, 0), hm(10, 1), true},
		{hm(11, 59), hm(13, 0), true},
		{hm(12, 0), hm(13, 0), false},
		{hm(8, 0), hm(14, 0), true},
		{hm(10, 0), hm(10, 0), true},
		{hm(9, 59), hm(9, 59), false},
	} {
		require.Equal(t, tc.want, r.Overlaps(tc.start, tc.end), "%s-%s", tc.start.Format("15:04"), tc.end.Format("15:04"))
	}
}
