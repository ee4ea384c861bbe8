package protocol

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Registry maps project IDs to their protocol attachments. It is
// persisted as a JSON file inside the repository directory.
type Registry struct {
	path    string
	entries map[string]Attachment
}

// LoadRegistry reads the registry file, returning an empty registry if
// the file does not exist yet.
func LoadRegistry(path string) (*Registry, error) {
	reg := &Registry{path: path, entries: make(map[string]Attachment)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return reg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading protocol registry: %w", err)
	}

	if err := json.Unmarshal(data, &reg.entries); err != nil {
		return nil, fmt.Errorf("parsing protocol registry: %w", err)
	}
	return reg, nil
}

// Put binds an attachment to a project, replacing any previous one.
func (r *Registry) Put(projectID string, att Attachment) {
	r.entries[projectID] = att
}

// Get returns the attachment for a project, if any.
func (r *Registry) Get(projectID string) (Attachment, bool) {
	att, ok := r.entries[projectID]
	return att, ok
}

// Projects returns the project IDs with attachments, sorted.
func (r *Registry) Projects() []string {
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Save writes the registry back to its file.
func (r *Registry) Save() error {
	data, err := json.MarshalIndent(r.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding protocol registry: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return fmt.Errorf("writing protocol registry: %w", err)
	}
	return nil
}
