package task

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document is the persisted task record stored as info.json.
type Document struct {
	TaskID     string   `json:"task_id"`
	Extensions []string `json:"ext_list"`
	Script     []string `json:"script_list"`
	Completed  []Stage  `json:"completed_work_list"`
	Options    Options  `json:"options"`
}

var requiredDocumentFields = []string{"task_id", "ext_list", "script_list", "completed_work_list", "options"}

// decodeDocument parses info.json strictly: every top-level field must be
// present and well typed, extensions must already be normalized, and the
// completed log may only hold known stages, each at most once.
func decodeDocument(data []byte) (Document, error) {
	var doc Document
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return doc, fmt.Errorf("malformed json: %w", err)
	}
	for _, name := range requiredDocumentFields {
		raw, ok := fields[name]
		if !ok {
			return doc, fmt.Errorf("missing field %q", name)
		}
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return doc, fmt.Errorf("field %q is null", name)
		}
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("mis-typed field: %w", err)
	}
	if doc.TaskID == "" {
		return doc, fmt.Errorf("empty task_id")
	}
	for i, ext := range doc.Extensions {
		if normalized, err := NormalizeExtension(ext); err != nil || normalized != ext {
			return doc, fmt.Errorf("invalid extension %q at ext_list[%d]", ext, i)
		}
	}
	seen := make(map[Stage]struct{}, len(doc.Completed))
	for _, stage := range doc.Completed {
		if !stage.Valid() {
			return doc, fmt.Errorf("unknown stage %q in completed_work_list", stage)
		}
		if _, dup := seen[stage]; dup {
			return doc, fmt.Errorf("stage %q recorded twice", stage)
		}
		seen[stage] = struct{}{}
	}
	return doc, nil
}

func encodeDocument(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
