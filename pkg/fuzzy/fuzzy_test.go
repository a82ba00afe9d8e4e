package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, LevenshteinDistance("Mia", "mia"))
	assert.Equal(t, 3, LevenshteinDistance("kitten", "sitting"))
	assert.Equal(t, 0, LevenshteinDistance("José", "jose"))
	assert.Equal(t, 4, LevenshteinDistance("", "abcd"))
}

func TestFuzzyMatch(t *testing.T) {
	assert.True(t, FuzzyMatch("torres", "Mia Torres", 1))
	assert.True(t, FuzzyMatch("tores", "Mia Torres", 1))
	assert.True(t, FuzzyMatch("tor", "Mia Torres", 0))
	assert.False(t, FuzzyMatch("smith", "Mia Torres", 1))
	assert.False(t, FuzzyMatch("", "Mia Torres", 1))
}

func TestRankBrokers(t *testing.T) {
	brokers := []BrokerFields{
		{ID: "1", Name: "Mia Torres", BrokerageName: "Compass", LicenseNumber: "01234567", Emails: []string{"mia@compass.com"}},
		{ID: "2", Name: "Pat Mia", BrokerageName: "Coldwell Banker", LicenseNumber: "07654321"},
		{ID: "3", Name: "Dan Miller", BrokerageName: "Torres Realty", LicenseNumber: "09999999"},
	}

	assert.Equal(t, []string{"1"}, RankBrokers("01234567", brokers, 0))
	assert.Equal(t, []string{"1", "3"}, RankBrokers("torres", brokers, 0))
	assert.Equal(t, []string{"1"}, RankBrokers("tores", brokers, 1))
	assert.Equal(t, []string{"2"}, RankBrokers("coldwell", brokers, 0))
	assert.Empty(t, RankBrokers("zzz", brokers, 0))
}
