package brain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// cleanModelJSON strips markdown fences and surrounding junk the model may
// emit despite being told not to, keeping only the JSON payload.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// If there's still junk around the payload, keep only the outermost
	// JSON value, preferring whichever opener appears first.
	arrStart := strings.Index(s, "[")
	objStart := strings.Index(s, "{")

	switch {
	case arrStart != -1 && (objStart == -1 || arrStart < objStart):
		if end := strings.LastIndex(s, "]"); end > arrStart {
			s = s[arrStart : end+1]
		}
	case objStart != -1:
		if end := strings.LastIndex(s, "}"); end > objStart {
			s = s[objStart : end+1]
		}
	}

	return strings.TrimSpace(s)
}

// decodeJSONObject unmarshals a cleaned model response into a generic map.
func decodeJSONObject(raw string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadModelOutput, err)
	}
	return obj, nil
}

// decodeCandidates unmarshals a cleaned model response into candidates. A
// bare object is tolerated and wrapped into a single-element list.
func decodeCandidates(raw string) ([]RawCandidate, error) {
	clean := cleanModelJSON(raw)

	var list []rawCandidateJSON
	if err := json.Unmarshal([]byte(clean), &list); err != nil {
		var single rawCandidateJSON
		if err2 := json.Unmarshal([]byte(clean), &single); err2 != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadModelOutput, err)
		}
		list = []rawCandidateJSON{single}
	}

	result := make([]RawCandidate, 0, len(list))
	for _, c := range list {
		result = append(result, c.toCandidate())
	}
	return result, nil
}

// rawCandidateJSON tolerates the model returning numbers as strings and
// omitting optional keys.
type rawCandidateJSON struct {
	Type     string          `json:"type"`
	Amount   json.RawMessage `json:"amount"`
	Concept  string          `json:"concept"`
	Merchant *string         `json:"merchant"`
	Category string          `json:"category"`
	Date     *string         `json:"date"`
}

func (c rawCandidateJSON) toCandidate() RawCandidate {
	out := RawCandidate{
		Type:     strings.ToUpper(strings.TrimSpace(c.Type)),
		Amount:   parseAmount(c.Amount),
		Concept:  strings.TrimSpace(c.Concept),
		Category: strings.TrimSpace(c.Category),
	}
	if c.Merchant != nil {
		if m := strings.TrimSpace(*c.Merchant); m != "" {
			out.Merchant = &m
		}
	}
	if c.Date != nil {
		out.Date = strings.TrimSpace(*c.Date)
	}
	return out
}

func parseAmount(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
		s = strings.TrimPrefix(s, "$")
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	}
	return 0
}

// getStringField reads a string value out of a generic model object.
func getStringField(m map[string]any, key string, required bool) (string, error) {
	v, ok := m[key]
	if !ok {
		if required {
			return "", fmt.Errorf("%w: missing required field %q", ErrBadModelOutput, key)
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: field %q has type %T, want string", ErrBadModelOutput, key, v)
	}
	if required && strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: required field %q is empty", ErrBadModelOutput, key)
	}
	return s, nil
}

// getFloat64Field reads a numeric value out of a generic model object.
func getFloat64Field(m map[string]any, key string) (float64, error) {
	v, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing required field %q", ErrBadModelOutput, key)
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: field %q has type %T, want number", ErrBadModelOutput, key, v)
	}
	return f, nil
}

// parseReceiptDate accepts the date formats the receipt prompt allows.
func parseReceiptDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrBadModelOutput, s)
}
