package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"hubspace_bridge/internal/models"
	"hubspace_bridge/internal/service"
)

func TestLogsHandler_ListAndValidation(t *testing.T) {
	auth := &mockAuth{parseID: 99}
	now := time.Now().UTC().Truncate(time.Second)
	events := []models.CommandEvent{
		{EventID: "e1", OccurredAt: now, Type: "COMMAND", Description: "turn_on kitchen"},
		{EventID: "e2", OccurredAt: now.Add(1 * time.Second), Type: "ERROR", Description: "turn_on porch failed: API call failed"},
	}
	logs := &mockEventLog{resp: events}
	s := &service.Service{
		Authorization: auth,
		EventLog:      logs,
	}
	r := newTestRouter(s)

	// Invalid 'from' → 400
	w := performRequest(r, http.MethodGet, "/api/v1/logs/?from=notatime", nil, "valid")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid 'from', got %d", w.Code)
	}

	// Valid range and type (lowercase type should be normalized to upper in service call)
	q := "/api/v1/logs/?from=" + now.Format(time.RFC3339) + "&to=" + now.Add(2*time.Second).Format(time.RFC3339) + "&type=error"
	w = performRequest(r, http.MethodGet, q, nil, "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("logs status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count  int                   `json:"count"`
		Events []models.CommandEvent `json:"events"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || len(out.Events) != 2 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if logs.lastType != "ERROR" {
		t.Fatalf("expected lastType ERROR, got %q", logs.lastType)
	}
}

func TestLogsHandler_DateOnlyToIsEndOfDay(t *testing.T) {
	logs := &mockEventLog{}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, EventLog: logs}
	r := newTestRouter(s)

	w := performRequest(r, http.MethodGet, "/api/v1/logs/?to=2026-08-24", nil, "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("logs status=%d, body=%s", w.Code, w.Body.String())
	}
	endOfDay := time.Date(2026, 8, 24, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	if !logs.lastTo.Equal(endOfDay) {
		t.Fatalf("date-only 'to' should be end of day: got %v want %v", logs.lastTo, endOfDay)
	}
}

func TestLogsHandler_FromAfterTo(t *testing.T) {
	logs := &mockEventLog{}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, EventLog: logs}
	r := newTestRouter(s)

	w := performRequest(r, http.MethodGet, "/api/v1/logs/?from=2026-08-25&to=2026-08-24", nil, "valid")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", w.Code)
	}
}
