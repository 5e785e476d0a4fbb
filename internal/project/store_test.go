package project

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/iac-studio/blueprint/pkg/errors"
)

// sequentialIDs makes generated ids predictable for the duration of a test.
func sequentialIDs(t *testing.T) {
	t.Helper()
	n := 0
	prev := newID
	newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	t.Cleanup(func() { newID = prev })
}

func anchoredStore(t *testing.T) (*Store, Resource) {
	t.Helper()
	s, err := NewStore(nil)
	require.NoError(t, err)
	s, n, err := s.Add(Resource{Name: "main-vpc", Spec: NetworkSpec{CIDRBlock: "10.0.0.0/16"}, IsAnchorNetwork: true})
	require.NoError(t, err)
	return s, n
}

func TestNewStoreRejectsDuplicateIDs(t *testing.T) {
	_, err := NewStore([]Resource{vpc("a"), s3("a")})
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))

	_, err = NewStore([]Resource{{Name: "no-id", Spec: s3("x").Spec}})
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
}

func TestStoreAdd(t *testing.T) {
	sequentialIDs(t)
	s, n := anchoredStore(t)
	require.Equal(t, "id-1", n.ID)

	next, c, err := s.Add(Resource{ID: "ignored", Name: "web", Spec: ComputeSpec{InstanceType: "t2.micro", AMI: "ami-1"}, Dependencies: []string{n.ID}})
	require.NoError(t, err)
	require.Equal(t, "id-2", c.ID)
	require.Equal(t, 1, s.Len(), "receiver must not change")
	require.Equal(t, []string{n.ID, c.ID}, ids(next.All()))

	got, ok := next.Get(c.ID)
	require.True(t, ok)
	require.Equal(t, c, got)

	t.Run("empty name", func(t *testing.T) {
		_, _, err := s.Add(Resource{Name: "  ", Spec: ObjectStorageSpec{}})
		require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
	})

	t.Run("invalid properties", func(t *testing.T) {
		_, _, err := s.Add(Resource{Name: "db", Spec: DatabaseSpec{Engine: "db2", InstanceClass: "db.t3.micro"}})
		require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
		require.Contains(t, appErr.MessageOf(err), "engine")
	})

	t.Run("unknown dependency", func(t *testing.T) {
		_, _, err := s.Add(Resource{Name: "web", Spec: ComputeSpec{InstanceType: "t2.micro", AMI: "ami-1"}, Dependencies: []string{"ghost"}})
		require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
	})

	t.Run("custom target not allowed", func(t *testing.T) {
		_, _, err := next.Add(Resource{Name: "db", Spec: DatabaseSpec{Engine: "mysql", InstanceClass: "db.t3.micro", AllocatedStorage: 20}, CustomDependencies: []string{c.ID}})
		require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
	})

	t.Run("second anchor", func(t *testing.T) {
		_, _, err := s.Add(Resource{Name: "vpc2", Spec: NetworkSpec{CIDRBlock: "10.1.0.0/16"}, IsAnchorNetwork: true})
		require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
	})

	require.Equal(t, 2, next.Len())
}

func TestStoreUpdate(t *testing.T) {
	sequentialIDs(t)
	s, n := anchoredStore(t)
	s, bucket, err := s.Add(Resource{Name: "assets", Spec: ObjectStorageSpec{ACL: "private"}})
	require.NoError(t, err)
	s, web, err := s.Add(Resource{Name: "web", Spec: ComputeSpec{InstanceType: "t2.micro", AMI: "ami-1"}, Dependencies: []string{n.ID}})
	require.NoError(t, err)

	name := "web-1"
	custom := []string{bucket.ID}
	next, updated, err := s.Update(web.ID, Patch{Name: &name, CustomDependencies: &custom})
	require.NoError(t, err)
	require.Equal(t, web.ID, updated.ID)
	require.Equal(t, "web-1", updated.Name)
	require.Equal(t, []string{n.ID}, updated.Dependencies)
	require.Equal(t, []string{bucket.ID}, updated.CustomDependencies)

	stored, _ := next.Get(web.ID)
	require.Equal(t, updated, stored)
	old, _ := s.Get(web.ID)
	require.Equal(t, "web", old.Name)

	t.Run("not found", func(t *testing.T) {
		_, _, err := s.Update("missing", Patch{Name: &name})
		require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
	})

	t.Run("self reference", func(t *testing.T) {
		self := []string{web.ID}
		_, _, err := s.Update(web.ID, Patch{CustomDependencies: &self})
		require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
	})

	t.Run("anchor keeps its kind and flag", func(t *testing.T) {
		_, _, err := s.Update(n.ID, Patch{Spec: ObjectStorageSpec{}})
		require.True(t, appErr.IsCode(err, appErr.CodeInvalid))

		cidr := NetworkSpec{CIDRBlock: "10.9.0.0/16"}
		_, got, err := s.Update(n.ID, Patch{Spec: cidr})
		require.NoError(t, err)
		require.True(t, got.IsAnchorNetwork)
	})

	t.Run("kind change keeps inbound custom edges valid", func(t *testing.T) {
		s2, x, err := s.Add(Resource{Name: "shared", Spec: NetworkSpec{CIDRBlock: "10.2.0.0/16"}})
		require.NoError(t, err)
		s2, _, err = s2.Add(Resource{Name: "db", Spec: DatabaseSpec{Engine: "mysql", InstanceClass: "db.t3.micro", AllocatedStorage: 20}, CustomDependencies: []string{x.ID}})
		require.NoError(t, err)

		_, _, err = s2.Update(x.ID, Patch{Spec: ObjectStorageSpec{ACL: "private"}})
		require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
		require.Contains(t, appErr.MessageOf(err), `"db"`)
		stored, _ := s2.Get(x.ID)
		require.Equal(t, KindNetwork, stored.Kind())

		_, got, err := s2.Update(x.ID, Patch{Spec: NetworkSpec{CIDRBlock: "10.3.0.0/16"}})
		require.NoError(t, err)
		require.Equal(t, "10.3.0.0/16", got.Spec.(NetworkSpec).CIDRBlock)

		_, _, err = next.Update(bucket.ID, Patch{Spec: DatabaseSpec{Engine: "mysql", InstanceClass: "db.t3.micro", AllocatedStorage: 20}})
		require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
		require.Contains(t, appErr.MessageOf(err), `"web-1"`)

		_, _, err = s.Update(bucket.ID, Patch{Spec: DatabaseSpec{Engine: "mysql", InstanceClass: "db.t3.micro", AllocatedStorage: 20}})
		require.NoError(t, err)
	})

	t.Run("cycle is rejected", func(t *testing.T) {
		a := Resource{Name: "a", Spec: CustomSpec{Type: "lambda"}}
		s2, a, err := s.Add(a)
		require.NoError(t, err)
		s2, b, err := s2.Add(Resource{Name: "b", Spec: CustomSpec{Type: "queue"}, CustomDependencies: []string{a.ID}})
		require.NoError(t, err)

		back := []string{b.ID}
		_, _, err = s2.Update(a.ID, Patch{CustomDependencies: &back})
		require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
		require.Contains(t, appErr.MessageOf(err), "cycle")
	})
}

func TestStoreRemoveScenario(t *testing.T) {
	n := vpc("n")
	n.IsAnchorNetwork = true
	s := s3("s")
	c := ec2("c", "n")
	d := rds("d", "n", "c")
	store, err := NewStore([]Resource{n, s, c, d})
	require.NoError(t, err)

	require.Equal(t, []string{"c", "d"}, ids(store.Dependents("n")))
	require.Equal(t, []string{"d"}, ids(store.Dependents("c")))

	_, err = store.Remove("c")
	require.True(t, appErr.IsCode(err, appErr.CodeDependencyViolation))
	require.Contains(t, appErr.MessageOf(err), "rds-d")
	require.Equal(t, 4, store.Len())

	for _, id := range []string{"d", "c", "s"} {
		store, err = store.Remove(id)
		require.NoError(t, err, id)
	}
	_, err = store.Remove("n")
	require.True(t, appErr.IsCode(err, appErr.CodeDependencyViolation))
	require.Equal(t, []string{"n"}, ids(store.All()))

	_, err = store.Remove("ghost")
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}

func TestStoreRemoveAnchorAfterDependentsGone(t *testing.T) {
	n := vpc("n")
	n.IsAnchorNetwork = true
	store, err := NewStore([]Resource{n, ec2("c", "n")})
	require.NoError(t, err)

	ok, _ := store.CanDelete("n")
	require.False(t, ok)

	store, err = store.Remove("c")
	require.NoError(t, err)
	require.Empty(t, store.Dependents("n"))

	ok, _ = store.CanDelete("n")
	require.False(t, ok)
}

func TestStoreRemoveStripsDanglingReferences(t *testing.T) {
	x := s3("x")
	// NewStore tolerates stale references
	a := ec2("a")
	a.Dependencies = []string{"ghost"}
	store, err := NewStore([]Resource{x, a})
	require.NoError(t, err)

	ok, _ := store.CanDelete("x")
	require.True(t, ok)

	store, err = store.Remove("x")
	require.NoError(t, err)
	for _, r := range store.All() {
		require.NotContains(t, r.Dependencies, "x")
		require.NotContains(t, r.CustomDependencies, "x")
	}
}

func TestStoreAllIsACopy(t *testing.T) {
	store, err := NewStore([]Resource{vpc("n"), ec2("c", "n")})
	require.NoError(t, err)

	all := store.All()
	all[1].Dependencies[0] = "tampered"
	all[0].Name = "tampered"

	c, _ := store.Get("c")
	require.Equal(t, []string{"n"}, c.Dependencies)
	n, _ := store.Get("n")
	require.Equal(t, "vpc-n", n.Name)
}
