package utils

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// ExtractBulletTexts pulls plain text out of a JSONB bullets field. The
// structurer writes either a list of strings or a list of objects with a
// "text" key; both shapes appear in older rows.
func ExtractBulletTexts(bullets datatypes.JSON) []string {
	if len(bullets) == 0 {
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(bullets, &raw); err != nil {
		return nil
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var obj struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(item, &obj); err == nil && obj.Text != "" {
			out = append(out, obj.Text)
		}
	}
	return out
}
