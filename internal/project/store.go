package project

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	appErr "github.com/iac-studio/blueprint/pkg/errors"
)

// Store is an immutable, ordered snapshot of the resources of one project.
// Commands return a new Store and leave the receiver untouched.
type Store struct {
	resources []Resource
	index     map[string]int
}

// newID is swapped in tests.
var newID = uuid.NewString

// NewStore builds a store from resources in the given order. Ids must be
// present and unique; edges are not checked so stale data still loads.
func NewStore(resources []Resource) (*Store, error) {
	s := &Store{
		resources: make([]Resource, 0, len(resources)),
		index:     make(map[string]int, len(resources)),
	}
	for _, r := range resources {
		if strings.TrimSpace(r.ID) == "" {
			return nil, appErr.Newf(appErr.CodeInvalid, "resource %q has no id", r.Name)
		}
		if _, dup := s.index[r.ID]; dup {
			return nil, appErr.Newf(appErr.CodeInvalid, "duplicate resource id %s", r.ID)
		}
		s.index[r.ID] = len(s.resources)
		s.resources = append(s.resources, r.Clone())
	}
	return s, nil
}

// All returns the resources in insertion order.
func (s *Store) All() []Resource {
	out := make([]Resource, len(s.resources))
	for i, r := range s.resources {
		out[i] = r.Clone()
	}
	return out
}

// Get returns the resource with id.
func (s *Store) Get(id string) (Resource, bool) {
	i, ok := s.index[id]
	if !ok {
		return Resource{}, false
	}
	return s.resources[i].Clone(), true
}

func (s *Store) Len() int { return len(s.resources) }

// Anchor returns the anchor network, if any.
func (s *Store) Anchor() (Resource, bool) {
	for _, r := range s.resources {
		if r.IsAnchorNetwork {
			return r.Clone(), true
		}
	}
	return Resource{}, false
}

// Dependents returns the resources depending on id, in store order.
func (s *Store) Dependents(id string) []Resource {
	return Dependents(s.All(), id)
}

// CanDelete reports whether id may be removed, and why not.
func (s *Store) CanDelete(id string) (bool, string) {
	return CanDelete(s.resources, id)
}

// Add appends r under a freshly generated id and returns the stored copy.
func (s *Store) Add(r Resource) (*Store, Resource, error) {
	r = r.Clone()
	if err := r.Validate(); err != nil {
		return nil, Resource{}, err
	}
	if r.IsAnchorNetwork {
		if _, ok := s.Anchor(); ok {
			return nil, Resource{}, appErr.New(appErr.CodeInvalid, "project already has a main network")
		}
	}
	r.ID = newID()
	for _, taken := s.index[r.ID]; taken; _, taken = s.index[r.ID] {
		r.ID = newID()
	}

	next := s.with(append(s.All(), r))
	if err := next.checkEdges(r); err != nil {
		return nil, Resource{}, err
	}
	return next, r.Clone(), nil
}

// Patch describes an edit. Nil fields keep their current value.
type Patch struct {
	Name               *string
	Spec               Spec
	Dependencies       *[]string
	CustomDependencies *[]string
}

// Update applies p to the resource with id. The id and the anchor flag are
// preserved.
func (s *Store) Update(id string, p Patch) (*Store, Resource, error) {
	i, ok := s.index[id]
	if !ok {
		return nil, Resource{}, appErr.Newf(appErr.CodeNotFound, "resource %s not found", id)
	}
	r := s.resources[i].Clone()
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Spec != nil {
		r.Spec = p.Spec
	}
	if p.Dependencies != nil {
		r.Dependencies = cloneIDs(*p.Dependencies)
	}
	if p.CustomDependencies != nil {
		r.CustomDependencies = cloneIDs(*p.CustomDependencies)
	}
	if err := r.Validate(); err != nil {
		return nil, Resource{}, err
	}

	all := s.All()
	all[i] = r
	next := s.with(all)
	if p.Dependencies != nil || p.CustomDependencies != nil || p.Spec != nil {
		if err := next.checkEdges(r); err != nil {
			return nil, Resource{}, err
		}
	}
	if p.Spec != nil {
		if err := next.checkInbound(r); err != nil {
			return nil, Resource{}, err
		}
	}
	return next, r.Clone(), nil
}

// Remove deletes id when CanDelete allows it and strips id from the
// dependency lists of every remaining resource.
func (s *Store) Remove(id string) (*Store, error) {
	if _, ok := s.index[id]; !ok {
		return nil, appErr.Newf(appErr.CodeNotFound, "resource %s not found", id)
	}
	if ok, reason := s.CanDelete(id); !ok {
		return nil, appErr.New(appErr.CodeDependencyViolation, reason).WithMeta("resource_id", id)
	}
	kept := make([]Resource, 0, len(s.resources)-1)
	for _, r := range s.resources {
		if r.ID == id {
			continue
		}
		r = r.Clone()
		r.Dependencies = without(r.Dependencies, id)
		r.CustomDependencies = without(r.CustomDependencies, id)
		kept = append(kept, r)
	}
	return s.with(kept), nil
}

func (s *Store) with(resources []Resource) *Store {
	next := &Store{resources: resources, index: make(map[string]int, len(resources))}
	for i, r := range resources {
		next.index[r.ID] = i
	}
	return next
}

// checkEdges validates the edges of r against the store: targets must exist,
// may not be r itself, custom targets must be allowed for r's kind and the
// result must stay acyclic.
func (s *Store) checkEdges(r Resource) error {
	for _, dep := range MergedDependencies(r) {
		if dep == r.ID {
			return appErr.Newf(appErr.CodeInvalid, "resource %q cannot depend on itself", r.Name)
		}
		if _, ok := s.index[dep]; !ok {
			return appErr.Newf(appErr.CodeInvalid, "dependency %s of %q does not exist", dep, r.Name).
				WithMeta("dependency_id", dep)
		}
	}
	for _, dep := range r.CustomDependencies {
		target := s.resources[s.index[dep]]
		if !AllowsTarget(r.RuleKind(), target.RuleKind()) {
			return appErr.Newf(appErr.CodeInvalid, "%s resource %q cannot depend on %s resource %q",
				r.TypeLabel(), r.Name, target.TypeLabel(), target.Name)
		}
	}
	if err := DetectCycle(s.resources); err != nil {
		if errors.Is(err, ErrCycle) {
			return appErr.Wrap(err, appErr.CodeInvalid, "dependencies of "+quote(r.Name)+" would form a cycle")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "check dependency cycle")
	}
	return nil
}

// checkInbound re-checks the custom edges pointing at r after its kind
// changed.
func (s *Store) checkInbound(r Resource) error {
	for _, src := range s.resources {
		if src.ID == r.ID || !containsID(src.CustomDependencies, r.ID) {
			continue
		}
		if !AllowsTarget(src.RuleKind(), r.RuleKind()) {
			return appErr.Newf(appErr.CodeInvalid, "%s resource %q depends on %q, which cannot become a %s",
				src.TypeLabel(), src.Name, r.Name, r.TypeLabel()).WithMeta("dependent_id", src.ID)
		}
	}
	return nil
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func without(ids []string, id string) []string {
	var out []string
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func quote(s string) string { return `"` + s + `"` }
