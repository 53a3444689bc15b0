package prompt

import (
	"testing"
)

func TestNewRegistryLoadsAllTemplates(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	for id := range systemOf {
		if _, err := r.ChatTemplate(id); err != nil {
			t.Fatalf("ChatTemplate(%s): %v", id, err)
		}
	}
}

func TestChatTemplateUnknownID(t *testing.T) {
	r := MustNewRegistry()
	if _, err := r.ChatTemplate("missing_v9"); err == nil {
		t.Fatal("ChatTemplate(missing_v9) = nil error, want error")
	}
}
