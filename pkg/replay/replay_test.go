package replay

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/cms50f.go/pkg/cms50f"
	"github.com/robotalks/cms50f.go/pkg/sink"
)

type recorder []cms50f.Sample

func (r *recorder) HandleSample(s cms50f.Sample) { *r = append(*r, s) }

func TestPlay(t *testing.T) {
	testCases := []struct {
		name string
		in   string
	}{
		{"compact", "DATE,TIME,SPO2,PULSE\n2024-01-01,23:59:59,97,60\n2024-01-02,00:00:00,0,0\n"},
		{"spaced", "DATE, TIME, SPO2, PULSE\n2024-01-01, 23:59:59, 97, 60\n2024-01-02, 00:00:00, 0, 0\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var rec recorder
			n, err := Play(context.Background(), strings.NewReader(tc.in), time.UTC, &rec)
			require.NoError(t, err)
			require.Equal(t, 2, n)
			require.Equal(t, recorder{
				{Time: time.Date(2024, 1, 1, 23, 59, 59, 0, time.UTC), SpO2: 97, Pulse: 60, Remaining: 1},
				{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), SpO2: 0, Pulse: 0, Remaining: 0},
			}, rec)
		})
	}
}

func TestPlayErrors(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		line int
	}{
		{"empty", "", 0},
		{"bad header", "A,B,C,D\n", 0},
		{"bad date", "DATE,TIME,SPO2,PULSE\n2024-13-01,00:00:00,97,60\n", 2},
		{"bad spo2", "DATE,TIME,SPO2,PULSE\n2024-01-01,00:00:00,x,60\n", 2},
		{"pulse overflow", "DATE,TIME,SPO2,PULSE\n2024-01-01,00:00:00,97,60\n2024-01-01,00:00:01,97,600\n", 3},
		{"short record", "DATE,TIME,SPO2,PULSE\n2024-01-01,00:00:00,97\n", 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var rec recorder
			n, err := Play(context.Background(), strings.NewReader(tc.in), time.UTC, &rec)
			require.Error(t, err)
			require.Equal(t, 0, n)
			require.Empty(t, rec)
			if tc.line > 0 {
				var re *RecordError
				require.ErrorAs(t, err, &re)
				require.Equal(t, tc.line, re.Line)
			}
		})
	}
}

func TestPlayCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var rec recorder
	n, err := Play(ctx, strings.NewReader("DATE,TIME,SPO2,PULSE\n2024-01-01,00:00:00,97,60\n"), time.UTC, &rec)
	require.Equal(t, context.Canceled, err)
	require.Equal(t, 0, n)
}

func TestPlayFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2024, time.March, 5, 22, 10, 0, 0, time.Local)
	csvFile := sink.NewCSVFile(dir)
	for i := 0; i < 5; i++ {
		csvFile.HandleSample(cms50f.Sample{
			Time: start.Add(time.Duration(i) * time.Second), SpO2: uint8(90 + i), Pulse: uint8(70 - i), Remaining: 4 - i,
		})
	}
	require.NoError(t, csvFile.Close())

	var rec recorder
	n, err := PlayFile(context.Background(), csvFile.Path(), nil, &rec)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	for i, s := range rec {
		require.True(t, start.Add(time.Duration(i)*time.Second).Equal(s.Time))
		require.Equal(t, uint8(90+i), s.SpO2)
		require.Equal(t, 4-i, s.Remaining)
	}

	_, err = PlayFile(context.Background(), filepath.Join(dir, "missing.csv"), nil, &rec)
	require.True(t, os.IsNotExist(err))
}
