package project

import (
	"encoding/json"
	"fmt"
	"strings"

	appErr "github.com/iac-studio/blueprint/pkg/errors"
)

// Resource is one declared infrastructure unit. The shared envelope carries
// identity and edges; Spec carries the kind specific properties.
type Resource struct {
	ID   string
	Name string
	Spec Spec

	// Dependencies are the structural edges (e.g. an instance on its VPC).
	Dependencies []string
	// CustomDependencies are edges the user declared by hand.
	CustomDependencies []string

	// IsAnchorNetwork marks the network created with the project. It can
	// never be removed.
	IsAnchorNetwork bool
}

// Kind returns the variant of the resource, or "" when it has no spec.
func (r Resource) Kind() Kind {
	if r.Spec == nil {
		return ""
	}
	return r.Spec.Kind()
}

// TypeLabel is the type name shown to users: the kind name for typed
// resources, the free-form label for custom ones.
func (r Resource) TypeLabel() string {
	if c, ok := r.Spec.(CustomSpec); ok {
		return c.Type
	}
	return string(r.Kind())
}

// RuleKind is the kind used for the valid-targets table and node colours.
// A custom resource labelled with a built-in type name ("EC2", "VPC", ...)
// follows that type's rules.
func (r Resource) RuleKind() Kind {
	if r.Spec == nil {
		return ""
	}
	return ParseKind(r.TypeLabel())
}

// Properties returns the flat property map of the resource.
func (r Resource) Properties() map[string]any {
	if r.Spec == nil {
		return map[string]any{}
	}
	return r.Spec.Properties()
}

// Validate checks the envelope and the spec. Edges are checked by the Store,
// which knows the other resources.
func (r Resource) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return appErr.New(appErr.CodeInvalid, "resource name is required")
	}
	if err := ValidateSpec(r.Spec); err != nil {
		return err
	}
	if r.IsAnchorNetwork && r.Kind() != KindNetwork {
		return appErr.Newf(appErr.CodeInvalid, "anchor resource %q must be a %s", r.Name, KindNetwork)
	}
	return nil
}

// Clone returns a copy that shares no slices with r.
func (r Resource) Clone() Resource {
	r.Dependencies = cloneIDs(r.Dependencies)
	r.CustomDependencies = cloneIDs(r.CustomDependencies)
	if c, ok := r.Spec.(CustomSpec); ok && c.Params != nil {
		params := make(map[string]string, len(c.Params))
		for k, v := range c.Params {
			params[k] = v
		}
		c.Params = params
		r.Spec = c
	}
	return r
}

func cloneIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

type wireResource struct {
	ID                 string          `json:"id"`
	Type               string          `json:"type"`
	Name               string          `json:"name"`
	Properties         json.RawMessage `json:"properties"`
	Dependencies       []string        `json:"dependencies"`
	CustomDependencies []string        `json:"customDependencies"`
	IsFirstVPC         bool            `json:"isFirstVPC,omitempty"`
	IsCustom           bool            `json:"isCustom,omitempty"`
	Code               string          `json:"code,omitempty"`
}

// MarshalJSON writes the persisted resource record.
func (r Resource) MarshalJSON() ([]byte, error) {
	w := wireResource{
		ID:                 r.ID,
		Type:               r.TypeLabel(),
		Name:               r.Name,
		Dependencies:       r.Dependencies,
		CustomDependencies: r.CustomDependencies,
		IsFirstVPC:         r.IsAnchorNetwork,
	}
	if w.Dependencies == nil {
		w.Dependencies = []string{}
	}
	if w.CustomDependencies == nil {
		w.CustomDependencies = []string{}
	}

	var props any = r.Spec
	switch s := r.Spec.(type) {
	case nil:
		props = map[string]any{}
	case CustomSpec:
		w.IsCustom = true
		w.Code = s.Code
		props = s.Properties()
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("marshal properties of %s: %w", r.ID, err)
	}
	w.Properties = raw
	return json.Marshal(w)
}

// UnmarshalJSON reads a persisted resource record.
func (r *Resource) UnmarshalJSON(b []byte) error {
	var w wireResource
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	kind := ParseKind(w.Type)
	if w.IsCustom {
		kind = KindCustom
	}
	spec, err := DecodeSpec(kind, w.Type, w.Code, w.Properties)
	if err != nil {
		return fmt.Errorf("resource %s: properties: %w", w.ID, err)
	}
	*r = Resource{
		ID:                 w.ID,
		Name:               w.Name,
		Spec:               spec,
		Dependencies:       cloneIDs(w.Dependencies),
		CustomDependencies: cloneIDs(w.CustomDependencies),
		IsAnchorNetwork:    w.IsFirstVPC,
	}
	return nil
}
