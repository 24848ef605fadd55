package scoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tables are the keyword lists the scorer matches against. All entries
// are compared lowercase against lowercased comment text.
type Tables struct {
	Business []string `yaml:"business"`
	Urgency  []string `yaml:"urgency"`
	Question []string `yaml:"question"`
}

// DefaultTables returns the built-in keyword tables.
func DefaultTables() Tables {
	return Tables{
		Business: []string{
			"business", "company", "startup", "entrepreneur", "ceo", "founder",
			"marketing", "sales", "lead", "customer", "client", "service",
			"website", "online", "digital", "ecommerce", "shop", "store",
			"consultation", "freelance", "agency", "firm", "llc", "inc",
			"looking for", "need help", "interested in", "want to hire",
			"budget", "quote", "proposal", "project", "collaborate",
		},
		Urgency: []string{
			"urgent", "asap", "immediately", "soon", "deadline", "quick",
			"fast", "now", "today", "this week", "next week",
		},
		Question: []string{
			"how much", "cost", "price", "rate", "fee", "budget",
			"how do", "can you", "do you offer", "available for",
			"what is your", "how to", "help with", "advice",
		},
	}
}

// Loader handles loading and parsing of a keyword tables YAML file.
type Loader struct {
	filePath string
}

// NewLoader creates a keyword tables loader.
func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Load reads and parses the keywords file. Sections left empty in the
// file fall back to the built-in defaults, so a file can override just
// one table.
func (l *Loader) Load() (Tables, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return Tables{}, fmt.Errorf("failed to read keywords file: %w", err)
	}

	var tables Tables
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return Tables{}, fmt.Errorf("failed to parse keywords yaml: %w", err)
	}

	defaults := DefaultTables()
	if len(tables.Business) == 0 {
		tables.Business = defaults.Business
	}
	if len(tables.Urgency) == 0 {
		tables.Urgency = defaults.Urgency
	}
	if len(tables.Question) == 0 {
		tables.Question = defaults.Question
	}

	return tables, nil
}
