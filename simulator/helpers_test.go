package simulator

import (
	"testing"

	"github.com/tidwall/gjson"

	"github.com/kilianp07/cpsim/core/model"
	"github.com/kilianp07/cpsim/core/ocpp"
	"github.com/kilianp07/cpsim/infra/mqtt"
)

// fastConfig returns a config with millisecond timings.
func fastConfig() Config {
	cfg := Config{
		Sessions:              1,
		SampleIntervalSeconds: 0.02,
		ChargingSeconds:       0.07,
		CohortSizes:           []int{1},
		Seed:                  42,
	}
	cfg.SetDefaults()
	return cfg
}

func frames(t *testing.T, msgs []mqtt.Message) []*ocpp.Frame {
	t.Helper()
	out := make([]*ocpp.Frame, 0, len(msgs))
	for _, m := range msgs {
		f, err := ocpp.Parse(m.Payload)
		if err != nil {
			t.Fatalf("parse %s: %v", m.Payload, err)
		}
		out = append(out, f)
	}
	return out
}

func actions(fs []*ocpp.Frame) []model.MessageType {
	out := make([]model.MessageType, len(fs))
	for i, f := range fs {
		out[i] = f.Action
	}
	return out
}

func devicesN(n int) []model.Device {
	out := make([]model.Device, n)
	for i := range out {
		out[i] = model.Device{Name: "cp" + string(rune('a'+i%26)) + string(rune('0'+i/26))}
	}
	return out
}

func socValue(f *ocpp.Frame) int64 {
	return gjson.GetBytes(f.Payload, "meterValue.0.sampledValue.0.value").Int()
}

// checkSessionShape asserts one Authorize, one StartTransaction, at least one
// MeterValues and a trailing StopTransaction per session, in that order.
func checkSessionShape(t *testing.T, fs []*ocpp.Frame, sessions int) {
	t.Helper()
	i := 0
	for s := 0; s < sessions; s++ {
		expect := func(want model.MessageType) *ocpp.Frame {
			if i >= len(fs) {
				t.Fatalf("session %d: missing %s", s, want)
			}
			if fs[i].Action != want {
				t.Fatalf("session %d: frame %d is %s, want %s", s, i, fs[i].Action, want)
			}
			i++
			return fs[i-1]
		}
		expect(model.MessageAuthorize)
		start := expect(model.MessageStartTransaction)
		meterStart, _ := MeterReadings(s)
		if got := gjson.GetBytes(start.Payload, "meterStart").Int(); got != meterStart {
			t.Fatalf("session %d: meterStart %d, want %d", s, got, meterStart)
		}
		samples := 0
		for i < len(fs) && fs[i].Action == model.MessageMeterValues {
			samples++
			i++
		}
		if samples == 0 {
			t.Fatalf("session %d: no MeterValues", s)
		}
		stop := expect(model.MessageStopTransaction)
		if got := gjson.GetBytes(stop.Payload, "transactionId").Int(); got != int64(s) {
			t.Fatalf("session %d: transactionId %d", s, got)
		}
	}
	if i != len(fs) {
		t.Fatalf("unexpected trailing frames: %v", actions(fs[i:]))
	}
}
