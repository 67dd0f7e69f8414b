package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowOptions(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		wantLen int
		wantErr string
	}{
		{name: "default window", wantLen: 0},
		{name: "explicit window", start: "2024-03-01", end: "2024-03-07", wantLen: 1},
		{name: "single day", start: "2024-03-01", end: "2024-03-01", wantLen: 1},
		{name: "start only", start: "2024-03-01", wantErr: "--start and --end"},
		{name: "end only", end: "2024-03-07", wantErr: "--start and --end"},
		{name: "bad date", start: "03/01/2024", end: "2024-03-07", wantErr: "parse window start"},
		{name: "reversed", start: "2024-03-07", end: "2024-03-01", wantErr: "is after end"},
		{name: "too long", start: "2024-01-01", end: "2024-03-01", wantErr: "spans more than"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := windowOptions(tt.start, tt.end)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, opts, tt.wantLen)
		})
	}
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd()

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"run", "schedule"}, names)

	run, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	assert.NotNil(t, run.Flags().Lookup("start"))
	assert.NotNil(t, run.Flags().Lookup("end"))
}
