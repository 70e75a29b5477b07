package documents

import (
	"encoding/json"
	"fmt"

	"gearrent-backend/internal/docstore"
)

func toFields(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode entity: %w", err)
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to encode entity: %w", err)
	}
	return fields, nil
}

func fromDocument(doc *docstore.Document, v any) error {
	data, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("failed to decode document %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", doc.ID, err)
	}
	return nil
}
