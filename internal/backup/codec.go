// Package backup converts a prescription collection to and from the portable backup file.
package backup

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/NordCoder/ordotrack/internal/domain/prescription"
)

// FileName is the name offered for downloaded backups.
const FileName = "ordonnances_backup.json"

func Export(c prescription.Collection) ([]byte, error) {
	if c == nil {
		c = prescription.Collection{}
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal backup: %w", err)
	}
	return b, nil
}

// Import parses a backup. Every restored record comes back with Notified
// reset to false, so alerts already delivered fire again after a restore.
// Ids must be present and unique.
func Import(b []byte) (prescription.Collection, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: top level is not a JSON array", prescription.ErrInvalidBackupFormat)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", prescription.ErrInvalidBackupFormat, err)
	}

	out := make(prescription.Collection, 0, len(raw))
	seen := make(map[string]int, len(raw))
	for i, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			return nil, fmt.Errorf("%w: entry %d is not an object", prescription.ErrInvalidBackupFormat, i)
		}
		var r prescription.Record
		if err := json.Unmarshal(item, &r); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", prescription.ErrInvalidBackupFormat, i, err)
		}
		if r.ID == "" {
			return nil, fmt.Errorf("%w: entry %d has no id", prescription.ErrInvalidBackupFormat, i)
		}
		if j, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("%w: entries %d and %d share id %q", prescription.ErrInvalidBackupFormat, j, i, r.ID)
		}
		seen[r.ID] = i
		r.Notified = false
		out = append(out, r)
	}
	return out, nil
}
