package project

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appErr "github.com/iac-studio/blueprint/pkg/errors"
)

func frozenClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func validMeta() Meta {
	return Meta{Name: "shop", Provider: "aws", Region: "us-east-1", Environment: EnvDevelopment}
}

func TestNewProjectCreatesAnchor(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	frozenClock(t, at)

	p, err := NewProject(validMeta(), "", NetworkSpec{CIDRBlock: "10.0.0.0/16", SubnetCIDRMask: "24"})
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)
	require.Equal(t, at, p.UpdatedAt)
	require.Len(t, p.Resources, 1)
	require.True(t, p.Resources[0].IsAnchorNetwork)
	require.Equal(t, "main-vpc", p.Resources[0].Name)

	_, err = NewProject(Meta{Name: "x", Provider: "ibm", Region: "r", Environment: "qa"}, "vpc", NetworkSpec{CIDRBlock: "10.0.0.0/16"})
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))

	_, err = NewProject(validMeta(), "vpc", NetworkSpec{CIDRBlock: "not-a-cidr"})
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
}

func TestProjectCommandsMarkDirty(t *testing.T) {
	p, err := NewProject(validMeta(), "main", NetworkSpec{CIDRBlock: "10.0.0.0/16"})
	require.NoError(t, err)
	p.Dirty = false
	anchorID := p.Resources[0].ID

	later := p.UpdatedAt.Add(time.Hour)
	frozenClock(t, later)

	withWeb, web, err := p.AddResource(Resource{Name: "web", Spec: ComputeSpec{InstanceType: "t2.micro", AMI: "ami-1"}})
	require.NoError(t, err)
	require.True(t, withWeb.Dirty)
	require.Equal(t, later, withWeb.UpdatedAt)
	require.Equal(t, []string{anchorID}, web.Dependencies, "compute sits in the anchor network")
	require.False(t, p.Dirty)
	require.Len(t, p.Resources, 1)

	bucketProject, bucket, err := withWeb.AddResource(Resource{Name: "assets", Spec: ObjectStorageSpec{}})
	require.NoError(t, err)
	require.Empty(t, bucket.Dependencies)

	custom := []string{bucket.ID}
	edited, _, err := bucketProject.UpdateResource(web.ID, Patch{CustomDependencies: &custom})
	require.NoError(t, err)
	require.Equal(t, []string{bucket.ID}, edited.Resources[1].CustomDependencies)

	_, err = edited.RemoveResource(bucket.ID)
	require.True(t, appErr.IsCode(err, appErr.CodeDependencyViolation))

	_, err = edited.RemoveResource(anchorID)
	require.True(t, appErr.IsCode(err, appErr.CodeDependencyViolation))

	removed, err := edited.RemoveResource(web.ID)
	require.NoError(t, err)
	require.Len(t, removed.Resources, 2)

	renamed, err := removed.WithMeta(Meta{Name: "shop-2", Provider: "gcp", Region: "eu-west-1", Environment: EnvStaging})
	require.NoError(t, err)
	require.Equal(t, "shop-2", renamed.Name)
	require.Equal(t, "shop", removed.Name)
}

func TestProjectJSONRoundTrip(t *testing.T) {
	for _, sample := range Samples() {
		sample := sample
		t.Run(sample.Name, func(t *testing.T) {
			blob, err := json.Marshal([]Project{sample})
			require.NoError(t, err)

			var loaded []Project
			require.NoError(t, json.Unmarshal(blob, &loaded))
			require.Len(t, loaded, 1)
			require.Equal(t, sample.Resources, loaded[0].Resources)
			require.Equal(t, sample.Meta(), loaded[0].Meta())
			require.True(t, sample.UpdatedAt.Equal(loaded[0].UpdatedAt))
		})
	}
}

func TestResourceJSONShape(t *testing.T) {
	c := Resource{
		ID:                 "7",
		Name:               "worker",
		Spec:               CustomSpec{Type: "aws_lambda_function", Code: "resource {}", Params: map[string]string{"runtime": "go1.x"}},
		CustomDependencies: []string{"1"},
	}
	raw, err := json.Marshal(c)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"id": "7",
		"type": "aws_lambda_function",
		"name": "worker",
		"properties": {"runtime": "go1.x"},
		"dependencies": [],
		"customDependencies": ["1"],
		"isCustom": true,
		"code": "resource {}"
	}`, string(raw))

	var back Resource
	require.NoError(t, json.Unmarshal(raw, &back))
	require.Equal(t, c, back)
	require.Equal(t, KindCustom, back.Kind())
	require.Equal(t, "aws_lambda_function", back.TypeLabel())
}

func TestLegacyBlobLoads(t *testing.T) {
	blob := `[{
		"id": "1700000000000",
		"name": "legacy",
		"description": "",
		"provider": "aws",
		"region": "us-east-1",
		"environment": "development",
		"updatedAt": "Just now",
		"resources": [
			{"id": "1", "type": "VPC", "name": "main-vpc", "properties": {"cidr_block": "10.0.0.0/16", "subnet_cidr_mask": 24}, "dependencies": [], "customDependencies": [], "isFirstVPC": true},
			{"id": "2", "type": "RDS", "name": "db", "properties": {"engine": "postgres", "instance_class": "db.t3.micro", "allocated_storage": 20}, "dependencies": ["1"]}
		]
	}]`

	var projects []Project
	require.NoError(t, json.Unmarshal([]byte(blob), &projects))
	p := projects[0]
	require.True(t, p.UpdatedAt.IsZero())
	require.Equal(t, NetworkSpec{CIDRBlock: "10.0.0.0/16", SubnetCIDRMask: "24"}, p.Resources[0].Spec)
	require.True(t, p.Resources[0].IsAnchorNetwork)
	require.Equal(t, DatabaseSpec{Engine: "postgres", InstanceClass: "db.t3.micro", AllocatedStorage: 20}, p.Resources[1].Spec)
	require.Nil(t, p.Resources[1].CustomDependencies)
}

func TestSamples(t *testing.T) {
	samples := Samples()
	require.Len(t, samples, 5)
	for _, p := range samples {
		require.True(t, IsBuiltIn(p.ID))
		store, err := p.Store()
		require.NoError(t, err, p.Name)
		anchor, ok := store.Anchor()
		require.True(t, ok, p.Name)
		require.Equal(t, KindNetwork, anchor.Kind())
		require.NoError(t, DetectCycle(p.Resources))
		for _, r := range p.Resources {
			require.NoError(t, r.Validate(), r.Name)
		}
	}
	require.False(t, IsBuiltIn("6"))

	p, ok := Sample("2")
	require.True(t, ok)
	require.Equal(t, "Database Cluster", p.Name)
	p.Resources[0].Name = "changed"
	again, _ := Sample("2")
	require.Equal(t, "db-vpc", again.Resources[0].Name)

	_, ok = Sample("42")
	require.False(t, ok)
}

func TestDatabaseAllocatedStorage(t *testing.T) {
	s, err := DecodeSpec(KindRelationalDatabase, "", "", json.RawMessage(`{"engine":"mysql","instance_class":"db.t3.micro"}`))
	require.NoError(t, err)
	require.Equal(t, DefaultAllocatedStorage, s.(DatabaseSpec).AllocatedStorage)
	require.NoError(t, ValidateSpec(s))
	require.Equal(t, 20, s.Properties()["allocated_storage"])

	s, err = DecodeSpec(KindRelationalDatabase, "", "", json.RawMessage(`{"engine":"mysql","instance_class":"db.t3.micro","allocated_storage":0}`))
	require.NoError(t, err)
	err = ValidateSpec(s)
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
	require.Contains(t, appErr.MessageOf(err), "allocated_storage")

	b, err := json.Marshal(DatabaseSpec{Engine: "mysql", InstanceClass: "db.t3.micro"})
	require.NoError(t, err)
	require.Contains(t, string(b), `"allocated_storage":0`)
}
