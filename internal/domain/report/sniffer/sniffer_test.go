package sniffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectConfig(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		delimiter rune
		skip      int
		headers   []string
	}{
		{
			name:      "comma with bom",
			data:      "\ufeffUnit,Kitchen Aerator,Toilet\n101,1,1\n",
			delimiter: ',',
			skip:      0,
			headers:   []string{"Unit", "Kitchen Aerator", "Toilet"},
		},
		{
			name:      "semicolon after metadata",
			data:      "Property: Oak Towers\nDate: 2024-05-01\nUnit;Kitchen;Bathroom;Notes\n101;1;1;\n",
			delimiter: ';',
			skip:      2,
			headers:   []string{"Unit", "Kitchen", "Bathroom", "Notes"},
		},
		{
			name:      "tab separated",
			data:      "Apt\tShower Head\tToilet\r\n1A\t1\t0\r\n",
			delimiter: '\t',
			skip:      0,
			headers:   []string{"Apt", "Shower Head", "Toilet"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := DetectConfig([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.delimiter, cfg.Delimiter)
			assert.Equal(t, tt.skip, cfg.SkipLines)
			assert.Equal(t, tt.headers, cfg.Headers)
			assert.NotEmpty(t, cfg.Fingerprint)
			assert.NotEmpty(t, cfg.SampleRows)
		})
	}
}

func TestDetectConfig_Empty(t *testing.T) {
	_, err := DetectConfig([]byte("  \n"))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestDetectConfigWithOptions_ForcedHeaderRow(t *testing.T) {
	data := []byte("junk|x\nUnit|Toilet\n101|1\n")
	cfg, err := DetectConfigWithOptions(data, &DetectOptions{HeaderRowIndex: 1})
	require.NoError(t, err)
	assert.Equal(t, '|', cfg.Delimiter)
	assert.Equal(t, []string{"Unit", "Toilet"}, cfg.Headers)

	_, err = DetectConfigWithOptions(data, &DetectOptions{HeaderRowIndex: 10})
	assert.ErrorIs(t, err, ErrNoHeadersFound)
}

func TestHeaderRow(t *testing.T) {
	grid := [][]string{
		{"Water Conservation Installation"},
		{"", ""},
		{"Bldg/Unit", "Kitchen Aerator", "Toilets Installed: 12"},
		{"101", "1", "1"},
	}
	idx, err := HeaderRow(grid)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	_, err = HeaderRow([][]string{{""}, {}})
	assert.ErrorIs(t, err, ErrNoHeadersFound)
}

func TestFingerprint_IgnoresCaseAndPunctuation(t *testing.T) {
	assert.Equal(t,
		Fingerprint([]string{"Unit #", "Kitchen Aerator"}),
		Fingerprint([]string{"unit", "KITCHEN-AERATOR"}),
	)
}
