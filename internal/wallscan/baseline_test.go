package wallscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, text string) *ScanSet {
	t.Helper()
	scan, _, err := ParseScan(text)
	require.NoError(t, err)
	return scan
}

func TestEstimateBaseline_PerLevelMin(t *testing.T) {
	scan := mustParse(t, "Level 1\n0,1000\n0,1000\nLevel 2\n0,900\n")

	b, warnings := EstimateBaseline(scan, BaselinePerLevelMin)
	assert.Empty(t, warnings)
	assert.Equal(t, LevelBaseline{1: 1000, 2: 900}, b.PerLevel)
	assert.Equal(t, 950.0, b.Global)

	for _, r := range scan.Readings {
		assert.Equal(t, 0.0, b.Deviation(r), "reading on line %d", r.LineNumber)
	}
}

func TestEstimateBaseline_MinimumNeverExceedsReadings(t *testing.T) {
	scan := mustParse(t, "Level 1\n-10,1012\n0,1000\n10,1013\nLevel 2\n-10,1040\n0,1031.5\n10,1049\n")

	b, _ := EstimateBaseline(scan, BaselinePerLevelMin)
	for lvl, readings := range scan.ByLevel() {
		for _, r := range readings {
			assert.LessOrEqual(t, b.PerLevel[lvl], r.DistanceMM)
		}
	}
	assert.Equal(t, 1000.0, b.PerLevel[1])
	assert.Equal(t, 1031.5, b.PerLevel[2])
}

func TestEstimateBaseline_GlobalMeanOfMins(t *testing.T) {
	scan := mustParse(t, "Level 1\n0,1000\n5,1010\nLevel 2\n0,900\n")

	b, _ := EstimateBaseline(scan, BaselineGlobalMeanOfMins)
	assert.Equal(t, 950.0, b.Global)
	assert.Equal(t, 950.0, b.Reference(1))
	assert.Equal(t, 950.0, b.Reference(2))

	devs := make([]float64, len(scan.Readings))
	for i, r := range scan.Readings {
		devs[i] = b.Deviation(r)
	}
	assert.Equal(t, []float64{50, 60, -50}, devs)
}

func TestEstimateBaseline_SignConvention(t *testing.T) {
	scan := mustParse(t, "Level 1\n0,1000\n1,990\n2,1010\n")
	b, _ := EstimateBaseline(scan, BaselineGlobalMeanOfMins)

	// Global reference is 990: nearer points are negative, farther positive.
	far := b.Deviation(Reading{Level: 1, DistanceMM: 1010})
	near := b.Deviation(Reading{Level: 1, DistanceMM: 980})
	assert.Greater(t, far, 0.0)
	assert.Less(t, near, 0.0)
}

func TestEstimateBaseline_DegenerateLevel(t *testing.T) {
	scan := mustParse(t, "Level 1\n0,1000\nLevel 2\nLevel 3\n0,800\n")

	b, warnings := EstimateBaseline(scan, BaselinePerLevelMin)
	assert.Equal(t, LevelBaseline{1: 1000, 2: 0, 3: 800}, b.PerLevel)
	// The empty level does not drag the global mean toward 0.
	assert.Equal(t, 900.0, b.Global)

	require.Len(t, warnings, 1)
	assert.Equal(t, DegenerateLevel, warnings[0].Kind)
	assert.Equal(t, 2, warnings[0].Level)
}

func TestBaseline_String(t *testing.T) {
	scan := mustParse(t, "Level 1\n0,1000\nLevel 2\n0,900\n")
	b, _ := EstimateBaseline(scan, BaselinePerLevelMin)
	assert.Contains(t, b.String(), "per-level-min")
	assert.Contains(t, b.String(), "900.000..1000.000mm")
}
