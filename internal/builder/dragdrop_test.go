package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDragPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		sidecar string
		want    DragSource
		ok      bool
	}{
		{"kind", "Text", "", DragSource{Kind: "Text"}, true},
		{"template", "template:tpl-header", "", DragSource{TemplateID: "tpl-header"}, true},
		{"sidecar wins", "template:tpl-header", `{"templateId":"tpl-footer"}`, DragSource{TemplateID: "tpl-footer"}, true},
		{"sidecar without id", "template:tpl-header", `{}`, DragSource{TemplateID: "tpl-header"}, true},
		{"sidecar only", "template:", `{"templateId":"tpl-3col"}`, DragSource{TemplateID: "tpl-3col"}, true},
		{"bad sidecar", "template:tpl-header", `{not json`, DragSource{}, false},
		{"empty template", "template:", "", DragSource{}, false},
		{"empty", "  ", "", DragSource{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDragPayload(tt.payload, tt.sidecar)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
