package ocpp

import "time"

// TimestampLayout is ISO-8601 with microsecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// AuthorizeRequest payload.
type AuthorizeRequest struct {
	IdTag string `json:"idTag"`
}

// StartTransactionRequest payload.
type StartTransactionRequest struct {
	ConnectorID int    `json:"connectorId"`
	IdTag       string `json:"idTag"`
	MeterStart  int64  `json:"meterStart"`
	Timestamp   string `json:"timestamp"`
}

// SampledValue is a single measurand reading.
type SampledValue struct {
	Unit      string `json:"unit"`
	Context   string `json:"context"`
	Measurand string `json:"measurand"`
	Location  string `json:"location"`
	Value     int    `json:"value"`
}

// MeterValue groups sampled values taken at the same instant.
type MeterValue struct {
	SampledValue []SampledValue `json:"sampledValue"`
}

// MeterValuesRequest payload for telemetry.
type MeterValuesRequest struct {
	ConnectorID int          `json:"connectorId"`
	MeterValue  []MeterValue `json:"meterValue"`
}

// StopTransactionRequest payload.
type StopTransactionRequest struct {
	Reason        string `json:"reason"`
	TransactionID int    `json:"transactionId"`
	MeterStop     int64  `json:"meterStop"`
	Timestamp     string `json:"timestamp"`
}

// NewSoCSample builds the MeterValues payload carrying one state-of-charge
// percentage.
func NewSoCSample(connectorID, soc int) MeterValuesRequest {
	return MeterValuesRequest{
		ConnectorID: connectorID,
		MeterValue: []MeterValue{{
			SampledValue: []SampledValue{{
				Unit:      "Percent",
				Context:   "Transaction.Begin",
				Measurand: "SoC",
				Location:  "EV",
				Value:     soc,
			}},
		}},
	}
}
