package client

import "encoding/json"

// HarvestJobID extracts the job identifier from a harvest creation
// response. Deployed backends have answered with three different key
// names over time, so the keys are tried in a fixed priority order:
// harvest_id, then id, then harvestId. Numeric identifiers are accepted
// and returned in their literal wire form.
func HarvestJobID(body []byte) (string, bool) {
	var fields struct {
		HarvestSnake json.RawMessage `json:"harvest_id"`
		ID           json.RawMessage `json:"id"`
		HarvestCamel json.RawMessage `json:"harvestId"`
	}
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", false
	}

	for _, raw := range []json.RawMessage{fields.HarvestSnake, fields.ID, fields.HarvestCamel} {
		if id, ok := rawID(raw); ok {
			return id, true
		}
	}
	return "", false
}

func rawID(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, s != ""
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), n.String() != ""
	}
	return "", false
}
