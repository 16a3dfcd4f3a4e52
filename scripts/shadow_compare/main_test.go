package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStripsEnvelope(t *testing.T) {
	s := &side{name: "go", envelope: true}
	payload, err := s.decode(strings.NewReader(`{"data":{"token":"abc"},"meta":{"request_id":"r1"}}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"token": "abc"}, payload)

	legacy := &side{name: "legacy"}
	payload, err = legacy.decode(strings.NewReader(`{"token":"abc"}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"token": "abc"}, payload)
}

func TestShapeAndKeyDiff(t *testing.T) {
	legacy := map[string]interface{}{
		"stats": map[string]interface{}{"totalScans": 1.0},
		"scans": []interface{}{map[string]interface{}{"barcode": "X", "status": "Healthy"}},
	}
	current := map[string]interface{}{
		"stats": map[string]interface{}{"totalScans": 1.0, "statusBreakdown": map[string]interface{}{}},
		"scans": []interface{}{map[string]interface{}{"barcode": "X"}},
	}

	missing, extra := keyDiff(shape(legacy, ""), shape(current, ""))
	assert.Equal(t, []string{"scans[].status"}, missing)
	assert.Equal(t, []string{"stats.statusBreakdown"}, extra)
}

func TestResultDiff(t *testing.T) {
	assert.False(t, result{GoStatus: 200, LegacyCode: 200, ExtraKeys: []string{"meta"}}.diff())
	assert.True(t, result{GoStatus: 200, LegacyCode: 404}.diff())
	assert.True(t, result{GoStatus: 200, LegacyCode: 200, MissingKeys: []string{"x"}}.diff())
}
