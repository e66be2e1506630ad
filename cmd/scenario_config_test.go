package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sim "github.com/wlan-sim/wlan-sim/sim"
)

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validScenarioYAML = `
band: "5"
floors:
  - level: 1
    rooms:
      - name: "Open Space"
        x: 0
        y: 0
        width: 800
        height: 600
aps:
  - id: "AP_1_1"
    floor: 1
    room: "Open Space"
    x: 200
    y: 300
    channel: 36
    airtime_capacity: 120
    max_clients: 25
  - id: "AP_1_2"
    floor: 1
    room: "Open Space"
    x: 600
    y: 300
    airtime_capacity: 100
    max_clients: 25
users:
  - id: "User_1"
    floor: 1
    room: "Open Space"
    x: 180
    y: 280
    airtime_demand: 3
    assigned_ap: "AP_1_1"
  - id: "User_2"
    floor: 1
    room: "Open Space"
    x: 590
    y: 310
`

func TestLoadScenario_Valid(t *testing.T) {
	path := writeTempYAML(t, validScenarioYAML)
	scn, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, sim.Band5, scn.Band)
	require.Len(t, scn.Floors, 1)
	require.Len(t, scn.APs, 2)
	require.Len(t, scn.Users, 2)

	// explicit channel kept, missing channel filled from the band plan
	assert.Equal(t, 36, scn.APs[0].Channel)
	assert.NotZero(t, scn.APs[1].Channel)

	// missing coverage falls back to the band default
	assert.Equal(t, sim.BandCoverage(sim.Band5), scn.APs[0].CoverageRadius)
	assert.Equal(t, sim.BandCoverage(sim.Band5), scn.APs[1].CoverageRadius)

	// interference scores derive from the channel plan
	for _, ap := range scn.APs {
		assert.GreaterOrEqual(t, ap.InterferenceScore, 0.0)
	}

	// missing demand falls back to 1, RSSI starts at the floor value
	assert.Equal(t, 3.0, scn.Users[0].AirtimeDemand)
	assert.Equal(t, 1.0, scn.Users[1].AirtimeDemand)
	for _, u := range scn.Users {
		assert.Equal(t, sim.RSSIFloor, u.RSSI)
	}
	assert.Equal(t, "AP_1_1", scn.Users[0].AssignedAP)
	assert.Equal(t, sim.Unassigned, scn.Users[1].AssignedAP)
}

func TestLoadScenario_LoadableByEngine(t *testing.T) {
	path := writeTempYAML(t, validScenarioYAML)
	scn, err := LoadScenario(path)
	require.NoError(t, err)

	e := sim.NewEngine(sim.DefaultConfig(), scn, sim.NewSimulationKey(1))
	e.Step()
	snap := e.Snapshot()
	assert.Len(t, snap.Assignments, 2)
}

func TestLoadScenario_Invalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "bad band",
			yaml: "band: \"60\"\nfloors:\n  - level: 1\n    rooms:\n      - name: a\n        width: 10\n        height: 10\naps:\n  - id: AP_1\n    floor: 1\n    airtime_capacity: 100\n",
			want: "invalid band",
		},
		{
			name: "no floors",
			yaml: "band: \"5\"\naps:\n  - id: AP_1\n    floor: 1\n    airtime_capacity: 100\n",
			want: "at least one floor",
		},
		{
			name: "floor without rooms",
			yaml: "band: \"5\"\nfloors:\n  - level: 1\naps:\n  - id: AP_1\n    floor: 1\n    airtime_capacity: 100\n",
			want: "no rooms",
		},
		{
			name: "AP on unknown floor",
			yaml: "band: \"5\"\nfloors:\n  - level: 1\n    rooms:\n      - name: a\n        width: 10\n        height: 10\naps:\n  - id: AP_1\n    floor: 3\n    airtime_capacity: 100\n",
			want: "unknown floor",
		},
		{
			name: "non-positive capacity",
			yaml: "band: \"5\"\nfloors:\n  - level: 1\n    rooms:\n      - name: a\n        width: 10\n        height: 10\naps:\n  - id: AP_1\n    floor: 1\n",
			want: "positive airtime_capacity",
		},
		{
			name: "user on unknown floor",
			yaml: "band: \"5\"\nfloors:\n  - level: 1\n    rooms:\n      - name: a\n        width: 10\n        height: 10\naps:\n  - id: AP_1\n    floor: 1\n    airtime_capacity: 100\nusers:\n  - id: User_1\n    floor: 9\n",
			want: "unknown floor",
		},
		{
			name: "malformed yaml",
			yaml: "band: [unclosed",
			want: "parse",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeTempYAML(t, tc.yaml)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
