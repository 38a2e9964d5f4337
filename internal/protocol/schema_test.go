package protocol

import "testing"

func TestCanBeUsedAs(t *testing.T) {
	str := &Schema{Kind: KindString}
	integer := &Schema{Kind: KindInt}
	float := &Schema{Kind: KindFloat}

	pose := Struct("Pose",
		Field{Name: "x", Schema: float},
		Field{Name: "y", Schema: float},
	)
	poseWithHeading := Struct("PoseH",
		Field{Name: "x", Schema: float},
		Field{Name: "y", Schema: float},
		Field{Name: "theta", Schema: float},
	)

	tests := []struct {
		name string
		sub  *Schema
		sup  *Schema
		want bool
	}{
		{"anything into any", str, Any(), true},
		{"nil into any", nil, Any(), true},
		{"nil into constrained", nil, str, false},
		{"any into constrained", Any(), str, false},
		{"same primitive", str, str, true},
		{"int widens to float", integer, float, true},
		{"float does not narrow to int", float, integer, false},
		{"string is not float", str, float, false},
		{"identical structs", pose, pose, true},
		{"extra fields are fine", poseWithHeading, pose, true},
		{"missing required field", pose, poseWithHeading, false},
		{"missing optional field", pose,
			Struct("P",
				Field{Name: "x", Schema: float},
				Field{Name: "y", Schema: float},
				Field{Name: "theta", Schema: float, Optional: true},
			), true},
		{"field type mismatch",
			Struct("P", Field{Name: "x", Schema: str}, Field{Name: "y", Schema: float}),
			pose, false},
		{"list element recursion",
			&Schema{Kind: KindList, Elem: integer},
			&Schema{Kind: KindList, Elem: float}, true},
		{"list element mismatch",
			&Schema{Kind: KindList, Elem: str},
			&Schema{Kind: KindList, Elem: float}, false},
		{"list is not map",
			&Schema{Kind: KindList, Elem: str},
			&Schema{Kind: KindMap, Elem: str}, false},
		{"struct is not primitive", pose, str, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, why := CanBeUsedAs(tt.sub, tt.sup)
			if got != tt.want {
				t.Errorf("CanBeUsedAs(%s, %s) = %v (%s), want %v", tt.sub, tt.sup, got, why, tt.want)
			}
			if !got && why == "" {
				t.Error("rejection must carry a reason")
			}
		})
	}
}

func TestSchemaFieldLookup(t *testing.T) {
	s := Struct("S", Field{Name: "a", Schema: &Schema{Kind: KindInt}})
	if s.Field("a") == nil {
		t.Error("expected field a")
	}
	if s.Field("b") != nil {
		t.Error("unexpected field b")
	}
	var nilSchema *Schema
	if nilSchema.Field("a") != nil {
		t.Error("nil schema must have no fields")
	}
	if (&Schema{Kind: KindInt}).Field("a") != nil {
		t.Error("non-struct schema must have no fields")
	}
}

func TestBuiltinInteractionsCoverCompatTopics(t *testing.T) {
	sim := Simulator()
	if sim.Outputs[TopicRobotObservations].Field(TopicObservations) == nil {
		t.Error("simulator must declare the observations payload it emits")
	}
	if sim.Inputs[TopicSetRobotCommands].Field("commands") == nil {
		t.Error("simulator must declare the commands payload it accepts")
	}
	agent := Agent()
	if _, ok := agent.Inputs[TopicObservations]; !ok {
		t.Error("agent must declare an observations input")
	}
	if _, ok := agent.Outputs[TopicCommands]; !ok {
		t.Error("agent must declare a commands output")
	}
}
