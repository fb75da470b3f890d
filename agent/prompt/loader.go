package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/greeter.txt
	greeterRaw string

	//go:embed template/retention.txt
	retentionRaw string

	//go:embed template/processor.txt
	processorRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Greeter   string
	Retention string
	Processor string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings. The
// embed is compile-time, so this is safe to call concurrently.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Greeter:   strings.TrimSpace(greeterRaw),
		Retention: strings.TrimSpace(retentionRaw),
		Processor: strings.TrimSpace(processorRaw),
	}
}
