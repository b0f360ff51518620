package date_test

import (
	"encoding/json"
	"testing"
	"time"

	"taskflow/internal/date"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    date.Date
		wantErr bool
	}{
		{name: "calendar date", input: "2026-03-14", want: date.New(2026, time.March, 14)},
		{name: "surrounding spaces", input: " 2026-03-14 ", want: date.New(2026, time.March, 14)},
		{name: "rfc3339 keeps the date", input: "2026-03-14T18:30:00Z", want: date.New(2026, time.March, 14)},
		{name: "garbage", input: "14/03/2026", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := date.Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDate_JSON(t *testing.T) {
	d := date.New(2025, time.December, 1)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-12-01"`, string(data))

	var decoded date.Date
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, d, decoded)

	assert.Error(t, json.Unmarshal([]byte(`42`), &decoded))
}

func TestDate_YAML(t *testing.T) {
	type holder struct {
		Due date.Date `yaml:"due"`
	}

	out, err := yaml.Marshal(holder{Due: date.New(2025, time.July, 4)})
	require.NoError(t, err)
	assert.Contains(t, string(out), "2025-07-04")

	var h holder
	require.NoError(t, yaml.Unmarshal(out, &h))
	assert.Equal(t, date.New(2025, time.July, 4), h.Due)
}
