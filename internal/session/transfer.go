package session

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/berth-dev/briefing/internal/model"
)

// Export writes session id from st to path as indented JSON.
func Export(st Store, id, path string) error {
	data, err := st.Load(id)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return writeAtomic(path, b)
}

// Import reads a session document from path and stores it under a new id
// with fresh timestamps. It returns the new id.
func Import(st Store, path string, now time.Time) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	var data model.SessionData
	if err := json.Unmarshal(b, &data); err != nil {
		return "", fmt.Errorf("parsing %s: %w", path, err)
	}
	data.SessionID = NewID()
	data.CreatedAt = now
	data.UpdatedAt = now
	if data.Status == "" {
		data.Status = model.StatusActive
	}
	if data.CurrentStep == "" {
		data.CurrentStep = model.StepInputIdea
	}
	if err := st.Save(&data); err != nil {
		return "", err
	}
	return data.SessionID, nil
}
