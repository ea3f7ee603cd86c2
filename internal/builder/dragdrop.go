package builder

import (
	"encoding/json"
	"strings"

	"pagebuilder/internal/domain"
)

// TemplatePrefix marks a drag payload that carries a template id.
const TemplatePrefix = "template:"

// DragSource is what a palette drag carries: a single kind or a template.
type DragSource struct {
	Kind       string
	TemplateID string
}

// IsTemplate reports whether the drag inserts a template.
func (d DragSource) IsTemplate() bool { return d.TemplateID != "" }

// DropRequest is a drop on the canvas: the plain-text drag payload, the
// optional JSON sidecar and the slot the block lands in.
type DropRequest struct {
	Payload string           `json:"payload"`
	Sidecar string           `json:"sidecar,omitempty"`
	Target  domain.Placement `json:"target"`
}

type templateSidecar struct {
	TemplateID string `json:"templateId"`
}

// ParseDragPayload decodes a drag payload. A "template:" payload may be
// backed by a JSON sidecar whose templateId takes precedence. The second
// result is false for empty payloads and malformed sidecars.
func ParseDragPayload(payload, sidecar string) (DragSource, bool) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return DragSource{}, false
	}
	if !strings.HasPrefix(payload, TemplatePrefix) {
		return DragSource{Kind: payload}, true
	}

	id := strings.TrimSpace(strings.TrimPrefix(payload, TemplatePrefix))
	if strings.TrimSpace(sidecar) != "" {
		var sc templateSidecar
		if err := json.Unmarshal([]byte(sidecar), &sc); err != nil {
			return DragSource{}, false
		}
		if sc.TemplateID != "" {
			id = sc.TemplateID
		}
	}
	if id == "" {
		return DragSource{}, false
	}
	return DragSource{TemplateID: id}, true
}
