package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusCreated).
		BodyHTML("<p>ok</p>").
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if w.Body.String() != "<p>ok</p>" {
		t.Errorf("Body = %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Error("HX-Trigger set without triggers")
	}
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerChanged(EventTransactionChanged, "2024-03").
		TriggerChanged(EventGoalChanged, "").
		TriggerSuccessNotification("Saved").
		Write(w)

	var got map[string]map[string]any
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &got); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	if got[EventTransactionChanged]["month"] != "2024-03" {
		t.Errorf("transaction trigger = %v", got[EventTransactionChanged])
	}
	if _, ok := got[EventGoalChanged]["month"]; ok {
		t.Errorf("goal trigger carries a month: %v", got[EventGoalChanged])
	}
	if got["show-notification"]["type"] != "success" {
		t.Errorf("notification = %v", got["show-notification"])
	}
}

func TestHTMXResponseBuilder_CustomHeader(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().Header("HX-Redirect", "/login").Write(w)
	if got := w.Header().Get("HX-Redirect"); got != "/login" {
		t.Errorf("HX-Redirect = %q", got)
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name string
		resp *HTMXResponseBuilder
		code int
	}{
		{"bad request", BadRequestError("bad"), http.StatusBadRequest},
		{"unprocessable", UnprocessableEntityError("bad"), http.StatusUnprocessableEntity},
		{"not found", NotFoundError("gone"), http.StatusNotFound},
		{"internal", InternalServerError("bad"), http.StatusInternalServerError},
		{"success", SuccessResponse("bad"), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.resp.Write(w)
			if w.Code != tt.code {
				t.Errorf("status = %d, want %d", w.Code, tt.code)
			}
			if !strings.Contains(w.Body.String(), `class="notice`) {
				t.Errorf("body = %q", w.Body.String())
			}
		})
	}
}

func TestErrorResponse_EscapesHTML(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorResponse(http.StatusBadRequest, `<script>alert("x")</script>`).Write(w)
	if strings.Contains(w.Body.String(), "<script>") {
		t.Errorf("message not escaped: %s", w.Body.String())
	}
}
