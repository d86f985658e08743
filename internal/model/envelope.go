package model

import (
	"encoding/json"
	"time"
)

// ResponseTimeLayout is the layout upstream uses for response_time.
const ResponseTimeLayout = time.DateTime

// Envelope is the outer structure of an ERP response. Fetches that page
// through an endpoint hand back a synthesized envelope carrying every page's
// rows.
type Envelope struct {
	Code         Code             `json:"code"`
	Message      string           `json:"message"`
	ErrorDetails json.RawMessage  `json:"error_details"`
	RequestID    string           `json:"request_id"`
	ResponseTime string           `json:"response_time"`
	Data         []map[string]any `json:"data"`
	Total        int              `json:"total"`
}

// NewEnvelope wraps rows collected across pages in a success envelope.
func NewEnvelope(rows []map[string]any, at time.Time, requestID string) *Envelope {
	if rows == nil {
		rows = []map[string]any{}
	}
	return &Envelope{
		Code:         "0",
		Message:      "success",
		ErrorDetails: json.RawMessage("[]"),
		RequestID:    requestID,
		ResponseTime: at.Format(ResponseTimeLayout),
		Data:         rows,
		Total:        len(rows),
	}
}

// RespondedAt parses ResponseTime in the local zone. ok is false when it is
// missing or malformed.
func (e *Envelope) RespondedAt() (time.Time, bool) {
	t, err := time.ParseInLocation(ResponseTimeLayout, e.ResponseTime, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
