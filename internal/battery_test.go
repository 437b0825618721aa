package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatteryStatus(t *testing.T) {
	cases := []struct {
		name    string
		percent float64
		state   uint32
		want    string
	}{
		{"charging", 42, batteryCharging, "42%↑"},
		{"discharging", 87.4, batteryDischarging, "87%↓"},
		{"full", 100, batteryFull, "100%"},
		{"unknown state", 55.5, 0, "56%"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := &BatteryWidget{percent: tc.percent, state: tc.state}
			assert.Equal(t, tc.want, w.statusNow())
		})
	}
}

func TestBatteryLevel(t *testing.T) {
	w := &BatteryWidget{percent: 87.4}
	assert.InDelta(t, 0.874, w.levelNow(), 0.001)

	w.percent = 130
	assert.Equal(t, 1.0, w.levelNow(), "bogus readings clamp to the bar range")
}
