package prompt

import (
	"strings"
	"testing"
)

func TestLoadPromptSet(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet()
	for name, content := range map[string]string{
		"greeter":   set.Greeter,
		"retention": set.Retention,
		"processor": set.Processor,
	} {
		if strings.TrimSpace(content) == "" {
			t.Fatalf("prompt %s is empty", name)
		}
		if content != strings.TrimSpace(content) {
			t.Fatalf("prompt %s not trimmed", name)
		}
	}
}
