package wallscan

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/plastermate/internal/monitoring"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

func TestParseScan_Basic(t *testing.T) {
	scan, warnings, err := ParseScan("Level 1\n0,1000\n0,1000\nLevel 2\n0,900\n")
	require.NoError(t, err)
	assert.Empty(t, warnings)

	require.Len(t, scan.Readings, 3)
	assert.Equal(t, []int{1, 2}, scan.Levels)
	assert.Equal(t, Reading{Level: 1, AzimuthDegrees: 0, DistanceMM: 1000, LineNumber: 2}, scan.Readings[0])
	assert.Equal(t, Reading{Level: 2, AzimuthDegrees: 0, DistanceMM: 900, LineNumber: 5}, scan.Readings[2])
}

func TestParseScan_WhitespaceAndBlankLines(t *testing.T) {
	text := "\n\n  Level   3  \r\n -12.5 , 1043.25 \r\n\n\t\n4.0,1010\n"
	scan, warnings, err := ParseScan(text)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, scan.Readings, 2)
	assert.Equal(t, 3, scan.Readings[0].Level)
	assert.Equal(t, -12.5, scan.Readings[0].AzimuthDegrees)
	assert.Equal(t, 1043.25, scan.Readings[0].DistanceMM)
}

func TestParseScan_OrphanDataLine(t *testing.T) {
	scan, warnings, err := ParseScan("0,500\nLevel 1\n0,600\n")
	require.NoError(t, err)

	require.Len(t, scan.Readings, 1)
	assert.Equal(t, 1, scan.Readings[0].Level)
	assert.Equal(t, 600.0, scan.Readings[0].DistanceMM)

	require.Len(t, warnings, 1)
	assert.Equal(t, OrphanData, warnings[0].Kind)
	assert.Equal(t, "0,500", warnings[0].Line)
	assert.Equal(t, 1, warnings[0].LineNumber)
}

func TestParseScan_RedeclaredLevelKeepsLastSection(t *testing.T) {
	scan, warnings, err := ParseScan("Level 1\n0,1000\nLevel 2\n0,900\nLevel 1\n5,1001\n")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, scan.Levels)
	byLevel := scan.ByLevel()
	require.Len(t, byLevel[1], 1)
	assert.Equal(t, 1001.0, byLevel[1][0].DistanceMM)
	assert.Len(t, byLevel[2], 1)

	require.Len(t, warnings, 1)
	assert.Equal(t, RedeclaredLevel, warnings[0].Kind)
	assert.Equal(t, 1, warnings[0].Level)
	assert.Equal(t, 5, warnings[0].LineNumber)
}

func TestParseScan_RedeclaredLevel(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantReadings int
		wantWarnings int
	}{
		{name: "second section replaces first", text: "Level 1\n0,1000\nLevel 1\n0,900\n", wantReadings: 1, wantWarnings: 1},
		{name: "empty first section", text: "Level 1\nLevel 1\n0,900\n", wantReadings: 1, wantWarnings: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scan, warnings, err := ParseScan(tt.text)
			require.NoError(t, err)
			assert.Len(t, scan.Readings, tt.wantReadings)
			assert.Len(t, warnings, tt.wantWarnings)
			assert.Equal(t, 900.0, scan.Readings[0].DistanceMM)
		})
	}

	// An empty last section empties the level.
	_, _, err := ParseScan("Level 1\n0,1000\nLevel 1\n")
	assert.ErrorIs(t, err, ErrEmptyScan)
}

func TestParseScan_MalformedLines(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantLine   string
		wantReason string
	}{
		{name: "non-integer level", text: "Level abc\n0,1\n", wantLine: "Level abc", wantReason: "not an integer"},
		{name: "level without number", text: "Level\n", wantLine: "Level", wantReason: "tokens"},
		{name: "level with extra token", text: "Level 1 2\n", wantLine: "Level 1 2", wantReason: "tokens"},
		{name: "glued level token", text: "Level1\n", wantLine: "Level1", wantReason: "tokens"},
		{name: "level zero", text: "Level 0\n", wantLine: "Level 0", wantReason: ">= 1"},
		{name: "three fields", text: "Level 1\n10,20,30\n", wantLine: "10,20,30", wantReason: "got 3"},
		{name: "one field", text: "Level 1\n1000\n", wantLine: "1000", wantReason: "got 1"},
		{name: "azimuth not a number", text: "Level 1\nabc,1000\n", wantLine: "abc,1000", wantReason: "azimuth \"abc\" is not a number"},
		{name: "distance not a number", text: "Level 1\n0,far\n", wantLine: "0,far", wantReason: "distance \"far\" is not a number"},
		{name: "empty distance", text: "Level 1\n0,\n", wantLine: "0,", wantReason: "not a number"},
		{name: "nan distance", text: "Level 1\n0,NaN\n", wantLine: "0,NaN", wantReason: "not finite"},
		{name: "infinite azimuth", text: "Level 1\n+Inf,10\n", wantLine: "+Inf,10", wantReason: "not finite"},
		{name: "indented data line kept verbatim", text: "Level 1\n  10,20,30 \r\n", wantLine: "  10,20,30 ", wantReason: "got 3"},
		{name: "indented level line kept verbatim", text: " Level x\r\n", wantLine: " Level x", wantReason: "not an integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scan, warnings, err := ParseScan(tt.text)
			assert.Nil(t, scan)
			assert.Nil(t, warnings)

			var malformed *MalformedInputError
			require.True(t, errors.As(err, &malformed), "expected MalformedInputError, got %v", err)
			assert.Equal(t, tt.wantLine, malformed.Line)
			assert.Contains(t, malformed.Reason, tt.wantReason)
			assert.Contains(t, err.Error(), tt.wantLine)
		})
	}
}

func TestParseScan_FieldCountVersusNumberMessages(t *testing.T) {
	_, _, countErr := ParseScan("Level 1\n10,20,30\n")
	_, _, numberErr := ParseScan("Level 1\n10,x\n")
	require.Error(t, countErr)
	require.Error(t, numberErr)
	assert.Contains(t, countErr.Error(), "comma-separated fields")
	assert.NotContains(t, numberErr.Error(), "comma-separated fields")
	assert.Contains(t, numberErr.Error(), "is not a number")
}

func TestParseScan_EmptyScan(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantLevels int
	}{
		{name: "empty text", text: ""},
		{name: "blank lines", text: "\n \n\t\n"},
		{name: "levels only", text: "Level 1\nLevel 2\n", wantLevels: 2},
		{name: "orphans only", text: "0,100\n1,200\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scan, _, err := ParseScan(tt.text)
			assert.Nil(t, scan)
			var empty *EmptyScanError
			require.True(t, errors.As(err, &empty), "expected EmptyScanError, got %v", err)
			assert.Equal(t, tt.wantLevels, empty.LevelsDeclared)
			assert.ErrorIs(t, err, ErrEmptyScan)
			assert.True(t, strings.HasPrefix(err.Error(), "no data"))
		})
	}
}

func TestParseScan_WarningsAreLogged(t *testing.T) {
	var logged []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		logged = append(logged, format)
	})
	defer monitoring.SetLogger(nil)

	_, _, err := ParseScan("1,2\nLevel 1\n0,1\n")
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.True(t, strings.HasPrefix(logged[0], "[wallscan] "))
}

func TestScanSet_SortedLevels(t *testing.T) {
	scan, _, err := ParseScan("Level 3\n0,1\nLevel 1\n0,1\nLevel 2\n0,1\n")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2}, scan.Levels)
	assert.Equal(t, []int{1, 2, 3}, scan.SortedLevels())
}
