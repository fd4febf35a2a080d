package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func brokenDocument() *Document {
	return &Document{
		Version: FormatVersion,
		Users: map[string]map[string]*Record{
			"111111111111111111": {
				"222222222222222222": {XP: 2500, Level: 99, VoiceMinutes: -4, ReactionsGiven: -1},
				"333333333333333333": nil,
			},
			"444444444444444444": nil,
		},
	}
}

func TestRepairDocumentFixesInvariants(t *testing.T) {
	doc := brokenDocument()

	repairs := repairDocument(doc)
	assert.Positive(t, repairs)

	rec := doc.Users["111111111111111111"]["222222222222222222"]
	assert.Equal(t, 5, rec.Level)
	assert.Equal(t, int64(0), rec.VoiceMinutes)
	assert.Equal(t, int64(0), rec.ReactionsGiven)

	// nil records and guild maps are replaced with empty ones
	assert.NotNil(t, doc.Users["111111111111111111"]["333333333333333333"])
	assert.NotNil(t, doc.Users["444444444444444444"])
}

func TestRepairDocumentIdempotent(t *testing.T) {
	doc := brokenDocument()

	first := repairDocument(doc)
	require.Positive(t, first)

	// The second pass over an already-repaired document changes nothing
	assert.Equal(t, 0, repairDocument(doc))
}

func TestStoreRepairIdempotent(t *testing.T) {
	s := openTempStore(t)

	_, err := s.Update("111111111111111111", "222222222222222222", func(rec *Record) {
		rec.XP = 450
		rec.Level = 2
	})
	require.NoError(t, err)

	// A healthy store reports nothing to repair, twice
	repairs, err := s.Repair()
	require.NoError(t, err)
	assert.Equal(t, 0, repairs)

	repairs, err = s.Repair()
	require.NoError(t, err)
	assert.Equal(t, 0, repairs)
}
