package model

import "testing"

func TestPhaseNextIsLinear(t *testing.T) {
	want := []Phase{PhaseAuthorizing, PhaseCharging, PhaseStopping, PhaseCompleted, PhaseCompleted}
	p := PhaseIdle
	for i, w := range want {
		p = p.Next()
		if p != w {
			t.Fatalf("step %d: expected %s got %s", i, w, p)
		}
	}
}

func TestDeviceIdentityFallsBackToName(t *testing.T) {
	d := Device{Name: "cp_1"}
	if d.Identity().Tag != "cp_1" {
		t.Fatalf("unexpected tag %s", d.Identity().Tag)
	}
	d.ID = "a1b2"
	d.Credential = "secret"
	id := d.Identity()
	if id.Tag != "a1b2" || id.Credential != "secret" {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestMessageTypeAttribute(t *testing.T) {
	if MessageMeterValues.Attribute() != "meter_values" {
		t.Fatalf("unexpected attribute %s", MessageMeterValues.Attribute())
	}
}
