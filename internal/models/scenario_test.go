package models

import (
	"reflect"
	"testing"
)

func TestScenarioRobotPartition(t *testing.T) {
	sc := Scenario{
		Name: "crossing",
		Robots: []RobotSpec{
			{Name: "ego0", Playable: true},
			{Name: "pedestrian", Playable: false},
			{Name: "ego1", Playable: true},
			{Name: "duckiebot-npc", Playable: false},
		},
	}
	if got := sc.Playable(); !reflect.DeepEqual(got, []string{"ego0", "ego1"}) {
		t.Errorf("Playable = %v", got)
	}
	if got := sc.NotPlayable(); !reflect.DeepEqual(got, []string{"pedestrian", "duckiebot-npc"}) {
		t.Errorf("NotPlayable = %v", got)
	}
}

func TestScenarioWithoutRobots(t *testing.T) {
	sc := Scenario{Name: "empty"}
	if got := sc.Playable(); got != nil {
		t.Errorf("Playable = %v, want nil", got)
	}
	if got := sc.NotPlayable(); got != nil {
		t.Errorf("NotPlayable = %v, want nil", got)
	}
}
