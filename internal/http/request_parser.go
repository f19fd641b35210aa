package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/services"
)

// maxBodyBytes bounds form and JSON bodies.
const maxBodyBytes = 64 << 10

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body once, up to maxBodyBytes.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a trimmed, sanitized value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
		return ""
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// TransactionInput reads the transaction form. The id comes from the path.
func (p *RequestBodyParser) TransactionInput(id string) services.TransactionInput {
	return services.TransactionInput{
		ID:          id,
		Type:        p.Get("type"),
		Amount:      p.Get("amount"),
		Date:        p.Get("date"),
		Category:    p.Get("category"),
		Description: p.Get("description"),
	}
}

func (p *RequestBodyParser) ReminderInput() services.ReminderInput {
	return services.ReminderInput{
		Name:    p.Get("name"),
		Amount:  p.Get("amount"),
		DueDate: p.Get("due_date"),
		Notes:   p.Get("notes"),
	}
}

// ParseDashboardQuery reads month, category, type and edit from the query
// string. Unknown or malformed values fall back to the unfiltered current
// month rather than failing the page.
func ParseDashboardQuery(q url.Values) services.DashboardQuery {
	var out services.DashboardQuery

	if v := strings.TrimSpace(q.Get("month")); v != "" {
		if k, err := core.PeriodKeyOf(v); err == nil {
			out.Period = k
		}
	}
	if v := strings.TrimSpace(q.Get("category")); v != "" {
		if c, err := core.ParseCategory(v); err == nil {
			out.Filter.Category = c
		}
	}
	if v := strings.TrimSpace(q.Get("type")); v != "" {
		if t, err := core.ParseTransactionType(v); err == nil {
			out.Filter.Type = t
		}
	}
	out.EditID = strings.TrimSpace(q.Get("edit"))
	return out
}

// encodeDashboardQuery is the inverse of ParseDashboardQuery without the
// edit id, used to refresh the dashboard in place.
func encodeDashboardQuery(period core.PeriodKey, f ledger.Filter) string {
	v := url.Values{}
	if period != "" {
		v.Set("month", string(period))
	}
	if f.Category != "" {
		v.Set("category", string(f.Category))
	}
	if f.Type != "" {
		v.Set("type", string(f.Type))
	}
	return v.Encode()
}
