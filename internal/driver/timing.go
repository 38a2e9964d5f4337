package driver

import "time"

// TimingRecord collects per-phase wall-clock durations for one simulation
// step. It is serialized into the episode log after every iteration.
type TimingRecord struct {
	Step   int                `cbor:"step"`
	Phases map[string]float64 `cbor:"phases"`
}

func newTimingRecord(step int) *TimingRecord {
	return &TimingRecord{Step: step, Phases: make(map[string]float64)}
}

// measure starts timing the named phase and returns the function that
// stops it. Meant to wrap one exchange:
//
//	stop := tt.measure("sim_physics")
//	... exchange ...
//	stop()
func (t *TimingRecord) measure(phase string) func() {
	t0 := time.Now()
	return func() {
		t.Phases[phase] = time.Since(t0).Seconds()
	}
}
