package repository

import (
	"context"

	"github.com/iac-studio/blueprint/internal/project"
)

// ProjectStore persists whole projects. The core never talks to it; the
// service loads a project, runs a command and saves the result.
type ProjectStore interface {
	// Load returns the project or a not_found error.
	Load(ctx context.Context, id string) (*project.Project, error)
	// Save inserts or replaces the project.
	Save(ctx context.Context, p *project.Project) error
	// List returns every stored project, oldest first.
	List(ctx context.Context) ([]project.Project, error)
	// Delete removes the project or returns a not_found error.
	Delete(ctx context.Context, id string) error
}
