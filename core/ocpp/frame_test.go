package ocpp

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/kilianp07/cpsim/core/model"
)

func TestEncodeBareFrame(t *testing.T) {
	f, err := NewCall(model.MessageAuthorize, AuthorizeRequest{IdTag: "cp_1"})
	require.NoError(t, err)
	data, err := f.Encode(false)
	require.NoError(t, err)

	res := gjson.ParseBytes(data)
	require.True(t, res.IsArray())
	assert.Len(t, res.Array(), 4)
	assert.Equal(t, int64(2), res.Get("0").Int())
	assert.Equal(t, f.UniqueID, res.Get("1").String())
	assert.Equal(t, "Authorize", res.Get("2").String())
	assert.Equal(t, "cp_1", res.Get("3.idTag").String())
}

func TestEncodeWrappedFrame(t *testing.T) {
	f, err := NewCall(model.MessageMeterValues, NewSoCSample(1, 42))
	require.NoError(t, err)
	data, err := f.Encode(true)
	require.NoError(t, err)

	sv := gjson.GetBytes(data, "meter_values.3.meterValue.0.sampledValue.0")
	assert.Equal(t, "Percent", sv.Get("unit").String())
	assert.Equal(t, "Transaction.Begin", sv.Get("context").String())
	assert.Equal(t, "SoC", sv.Get("measurand").String())
	assert.Equal(t, "EV", sv.Get("location").String())
	assert.Equal(t, int64(42), sv.Get("value").Int())
}

func TestParseRoundTripsBothShapes(t *testing.T) {
	f, err := NewCall(model.MessageStopTransaction, StopTransactionRequest{Reason: "Other", TransactionID: 2, MeterStop: 10})
	require.NoError(t, err)
	for _, wrap := range []bool{false, true} {
		data, err := f.Encode(wrap)
		require.NoError(t, err)
		got, err := Parse(data)
		require.NoError(t, err)
		assert.Equal(t, model.MessageStopTransaction, got.Action)
		assert.Equal(t, f.UniqueID, got.UniqueID)
		var p StopTransactionRequest
		require.NoError(t, json.Unmarshal(got.Payload, &p))
		assert.Equal(t, 2, p.TransactionID)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := []string{
		`[2,"id","Authorize"]`,
		`[3,"id","Authorize",{}]`,
		`{"a":[2,"id","Authorize",{}],"b":1}`,
		`nope`,
	}
	for _, c := range cases {
		if _, err := Parse([]byte(c)); err == nil {
			t.Fatalf("expected error for %s", c)
		}
	}
}

func TestFormatTimestampMicroseconds(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 123456789, time.FixedZone("x", 3600))
	assert.Equal(t, "2024-03-01T09:00:00.123456Z", FormatTimestamp(ts))
}
