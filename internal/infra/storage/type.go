package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// formato en disco:
// { "teams": { "1": { "members": [...], "role_id": ..., ... } }, "category_id": ... | null }
type snapshotFile struct {
	Teams      map[string]teamRecord `json:"teams"`
	CategoryID *snowflake            `json:"category_id"`
}

type teamRecord struct {
	Members        []snowflake `json:"members"`
	RoleID         snowflake   `json:"role_id"`
	CoachRoleID    snowflake   `json:"coach_role_id"`
	TextChannelID  snowflake   `json:"text_channel_id"`
	VoiceChannelID snowflake   `json:"voice_channel_id"`
}

// snowflake se escribe como string pero acepta números (snapshots viejos con ids enteros).
type snowflake string

func (s *snowflake) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = snowflake(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be string or integer: %s", b)
	}
	if _, err := n.Int64(); err != nil {
		return fmt.Errorf("id must be an integer: %s", n)
	}
	*s = snowflake(n.String())
	return nil
}
