package data

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// MessageTable holds the user-facing message templates keyed by id.
// Templates use %name% placeholders.
type MessageTable struct {
	prefix   string
	messages map[string]string
}

type messageFile struct {
	Prefix   string            `yaml:"prefix"`
	Messages map[string]string `yaml:"messages"`
}

// LoadMessageTable loads messages.yaml.
func LoadMessageTable(path string) (*MessageTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("messages: read %s: %w", path, err)
	}
	var f messageFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("messages: parse %s: %w", path, err)
	}
	if f.Messages == nil {
		f.Messages = make(map[string]string)
	}
	return &MessageTable{prefix: f.Prefix, messages: f.Messages}, nil
}

// NewMessageTable builds a table from an in-memory map.
func NewMessageTable(prefix string, messages map[string]string) *MessageTable {
	return &MessageTable{prefix: prefix, messages: messages}
}

// Get renders key with the given placeholder/value pairs, e.g.
// Get("worlds_import_finished", "%world%", "spawn"). A missing key renders
// as the key itself so the gap is visible in game.
func (t *MessageTable) Get(key string, kv ...string) string {
	msg, ok := t.messages[key]
	if !ok {
		return key
	}
	if len(kv) >= 2 {
		msg = strings.NewReplacer(kv[:len(kv)&^1]...).Replace(msg)
	}
	return msg
}

// Prefixed is Get with the table prefix prepended.
func (t *MessageTable) Prefixed(key string, kv ...string) string {
	return t.prefix + t.Get(key, kv...)
}

// Has reports whether key is defined.
func (t *MessageTable) Has(key string) bool {
	_, ok := t.messages[key]
	return ok
}

// Count returns the number of messages loaded.
func (t *MessageTable) Count() int {
	return len(t.messages)
}
