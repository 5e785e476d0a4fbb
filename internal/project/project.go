package project

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	appErr "github.com/iac-studio/blueprint/pkg/errors"
)

type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

func (e Environment) Valid() bool {
	switch e {
	case EnvDevelopment, EnvStaging, EnvProduction:
		return true
	}
	return false
}

// Providers and Regions are the choices offered by the project form.
var (
	Providers = []string{"aws", "azure", "gcp"}
	Regions   = []string{"us-east-1", "us-west-1", "eu-west-1", "ap-southeast-1"}
)

// Project is a named collection of resources.
type Project struct {
	ID          string
	Name        string
	Description string
	Provider    string
	Region      string
	Environment Environment
	UpdatedAt   time.Time
	Resources   []Resource

	// Dirty is set by every resource command and cleared by the caller once
	// the project has been saved.
	Dirty bool
}

// Meta holds the project level fields of the create and settings forms.
type Meta struct {
	Name        string      `json:"name" validate:"required,max=128"`
	Description string      `json:"description" validate:"max=1024"`
	Provider    string      `json:"provider" validate:"required,oneof=aws azure gcp"`
	Region      string      `json:"region" validate:"required"`
	Environment Environment `json:"environment" validate:"required,oneof=development staging production"`
}

func (m Meta) Validate() error {
	if err := validate.Struct(m); err != nil {
		return appErr.Wrap(err, appErr.CodeInvalid, describeValidation("invalid project", err))
	}
	return nil
}

var now = time.Now

// NewProject creates a project holding only its anchor network.
func NewProject(meta Meta, networkName string, network NetworkSpec) (*Project, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(networkName) == "" {
		networkName = "main-vpc"
	}
	store, _, err := (&Store{index: map[string]int{}}).Add(Resource{
		Name:            networkName,
		Spec:            network,
		IsAnchorNetwork: true,
	})
	if err != nil {
		return nil, err
	}
	p := &Project{
		ID:        uuid.NewString(),
		UpdatedAt: now().UTC(),
		Resources: store.All(),
		Dirty:     true,
	}
	p.apply(meta)
	return p, nil
}

func (p *Project) apply(m Meta) {
	p.Name = m.Name
	p.Description = m.Description
	p.Provider = m.Provider
	p.Region = m.Region
	p.Environment = m.Environment
}

// Meta returns the editable project level fields.
func (p *Project) Meta() Meta {
	return Meta{
		Name:        p.Name,
		Description: p.Description,
		Provider:    p.Provider,
		Region:      p.Region,
		Environment: p.Environment,
	}
}

// Store returns a store over the project's resources.
func (p *Project) Store() (*Store, error) {
	return NewStore(p.Resources)
}

// Clone returns a deep copy of p.
func (p *Project) Clone() *Project {
	c := *p
	c.Resources = make([]Resource, len(p.Resources))
	for i, r := range p.Resources {
		c.Resources[i] = r.Clone()
	}
	return &c
}

// WithMeta returns a copy of p with new settings.
func (p *Project) WithMeta(m Meta) (*Project, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	next := p.Clone()
	next.apply(m)
	next.touch()
	return next, nil
}

// AddResource returns a copy of p with r appended.
func (p *Project) AddResource(r Resource) (*Project, Resource, error) {
	store, err := p.Store()
	if err != nil {
		return nil, Resource{}, err
	}
	if len(r.Dependencies) == 0 {
		r.Dependencies = AutomaticDependencies(r.Kind(), store.All())
	}
	store, added, err := store.Add(r)
	if err != nil {
		return nil, Resource{}, err
	}
	return p.withStore(store), added, nil
}

// UpdateResource returns a copy of p with the patch applied to id.
func (p *Project) UpdateResource(id string, patch Patch) (*Project, Resource, error) {
	store, err := p.Store()
	if err != nil {
		return nil, Resource{}, err
	}
	store, updated, err := store.Update(id, patch)
	if err != nil {
		return nil, Resource{}, err
	}
	return p.withStore(store), updated, nil
}

// RemoveResource returns a copy of p without id.
func (p *Project) RemoveResource(id string) (*Project, error) {
	store, err := p.Store()
	if err != nil {
		return nil, err
	}
	store, err = store.Remove(id)
	if err != nil {
		return nil, err
	}
	return p.withStore(store), nil
}

func (p *Project) withStore(s *Store) *Project {
	next := *p
	next.Resources = s.All()
	next.touch()
	return &next
}

func (p *Project) touch() {
	p.Dirty = true
	p.UpdatedAt = now().UTC()
}

type wireProject struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Provider    string          `json:"provider"`
	Region      string          `json:"region"`
	Environment Environment     `json:"environment"`
	UpdatedAt   json.RawMessage `json:"updatedAt,omitempty"`
	Resources   []Resource      `json:"resources"`
}

func (p Project) MarshalJSON() ([]byte, error) {
	w := wireProject{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Provider:    p.Provider,
		Region:      p.Region,
		Environment: p.Environment,
		Resources:   p.Resources,
	}
	if w.Resources == nil {
		w.Resources = []Resource{}
	}
	if !p.UpdatedAt.IsZero() {
		ts, err := json.Marshal(p.UpdatedAt.UTC().Format(time.RFC3339))
		if err != nil {
			return nil, err
		}
		w.UpdatedAt = ts
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts updatedAt as an RFC 3339 timestamp. Markers such as
// "Just now" written by older clients load as the zero time.
func (p *Project) UnmarshalJSON(b []byte) error {
	var w wireProject
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*p = Project{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Provider:    w.Provider,
		Region:      w.Region,
		Environment: w.Environment,
		Resources:   w.Resources,
	}
	var marker string
	if len(w.UpdatedAt) > 0 && json.Unmarshal(w.UpdatedAt, &marker) == nil {
		if ts, err := time.Parse(time.RFC3339, marker); err == nil {
			p.UpdatedAt = ts.UTC()
		}
	}
	return nil
}
