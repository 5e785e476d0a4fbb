package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/iac-studio/blueprint/internal/project"
)

// readProjects accepts one project object or an array of them. "-" reads
// standard input.
func readProjects(path string, stdin io.Reader) ([]project.Project, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []project.Project
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return list, nil
	}
	var p project.Project
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return []project.Project{p}, nil
}

// pickProject selects id from list; an empty id needs exactly one project.
func pickProject(list []project.Project, id string) (*project.Project, error) {
	if id == "" {
		if len(list) != 1 {
			return nil, fmt.Errorf("file holds %d projects, choose one with --project", len(list))
		}
		return &list[0], nil
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, fmt.Errorf("project %q not found in file", id)
}
