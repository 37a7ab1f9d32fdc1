package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllFIPS_Exactly51(t *testing.T) {
	codes := AllFIPS()
	require.Len(t, codes, Count)

	// Sorted and zero-padded.
	for i := 1; i < len(codes); i++ {
		assert.Less(t, codes[i-1], codes[i])
		assert.Len(t, codes[i], 2)
	}
}

func TestIsCoverageState(t *testing.T) {
	assert.True(t, IsCoverageState("06"))  // California
	assert.True(t, IsCoverageState("11"))  // DC
	assert.True(t, IsCoverageState("02"))  // Alaska
	assert.False(t, IsCoverageState("72")) // Puerto Rico
	assert.False(t, IsCoverageState("66")) // Guam
	assert.False(t, IsCoverageState("3"))  // not zero-padded
	assert.False(t, IsCoverageState(""))
}

func TestLookup(t *testing.T) {
	name, abbr, ok := Lookup("48")
	require.True(t, ok)
	assert.Equal(t, "Texas", name)
	assert.Equal(t, "TX", abbr)

	_, _, ok = Lookup("60") // American Samoa
	assert.False(t, ok)
}

func TestLookup_AbbreviationsUnique(t *testing.T) {
	seen := make(map[string]string)
	for _, fips := range AllFIPS() {
		_, abbr, ok := Lookup(fips)
		require.True(t, ok)
		require.Len(t, abbr, 2)
		if prev, dup := seen[abbr]; dup {
			t.Fatalf("abbreviation %s shared by %s and %s", abbr, prev, fips)
		}
		seen[abbr] = fips
	}
}
