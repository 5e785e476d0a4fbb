package project

import "time"

// sampleUpdatedAt is the fixed timestamp of the built-in projects.
var sampleUpdatedAt = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// IsBuiltIn reports whether id names one of the read-only sample projects.
func IsBuiltIn(id string) bool {
	switch id {
	case "1", "2", "3", "4", "5":
		return true
	}
	return false
}

// Sample returns a fresh copy of the built-in project id.
func Sample(id string) (*Project, bool) {
	for _, p := range Samples() {
		if p.ID == id {
			return &p, true
		}
	}
	return nil, false
}

// Samples returns fresh copies of every built-in project, ordered by id.
func Samples() []Project {
	return []Project{
		sample("1", "AWS Web Infrastructure", "A complete web infrastructure setup for AWS", EnvProduction,
			anchor("main-vpc", "10.0.0.0/16"),
			Resource{ID: "2", Name: "web-server", Spec: ComputeSpec{InstanceType: "t2.micro", AMI: "ami-12345678"}, Dependencies: []string{"1"}},
			Resource{ID: "3", Name: "static-assets", Spec: ObjectStorageSpec{ACL: "private"}},
			Resource{ID: "4", Name: "database", Spec: DatabaseSpec{Engine: "mysql", InstanceClass: "db.t3.micro", AllocatedStorage: 20}, Dependencies: []string{"1"}},
		),
		sample("2", "Database Cluster", "PostgreSQL database cluster with primary and replica", EnvStaging,
			anchor("db-vpc", "10.1.0.0/16"),
			Resource{ID: "2", Name: "primary-db", Spec: DatabaseSpec{Engine: "postgres", InstanceClass: "db.t3.medium", AllocatedStorage: 50}, Dependencies: []string{"1"}},
			Resource{ID: "3", Name: "replica-db", Spec: DatabaseSpec{Engine: "postgres", InstanceClass: "db.t3.small", AllocatedStorage: 20}, Dependencies: []string{"1", "2"}},
		),
		sample("3", "Static Website", "S3-hosted static website infrastructure", EnvDevelopment,
			anchor("web-vpc", "10.2.0.0/16"),
			Resource{ID: "2", Name: "website-bucket", Spec: ObjectStorageSpec{ACL: "public-read"}},
		),
		sample("4", "Dev Environment", "Complete development environment with CI/CD", EnvDevelopment,
			anchor("dev-vpc", "10.3.0.0/16"),
			Resource{ID: "2", Name: "dev-server", Spec: ComputeSpec{InstanceType: "t2.micro", AMI: "ami-12345678"}, Dependencies: []string{"1"}},
			Resource{ID: "3", Name: "dev-assets", Spec: ObjectStorageSpec{ACL: "private"}},
			Resource{ID: "4", Name: "dev-db", Spec: DatabaseSpec{Engine: "mysql", InstanceClass: "db.t3.micro", AllocatedStorage: 10}, Dependencies: []string{"1"}},
			Resource{ID: "5", Name: "test-server", Spec: ComputeSpec{InstanceType: "t2.small", AMI: "ami-12345678"}, Dependencies: []string{"1"}},
			Resource{ID: "6", Name: "ci-server", Spec: ComputeSpec{InstanceType: "t2.medium", AMI: "ami-12345678"}, Dependencies: []string{"1"}},
			Resource{ID: "7", Name: "test-results", Spec: ObjectStorageSpec{ACL: "private"}},
			Resource{ID: "8", Name: "ci-artifacts", Spec: ObjectStorageSpec{ACL: "private"}},
		),
		sample("5", "Monitoring Stack", "Prometheus and Grafana monitoring infrastructure", EnvProduction,
			anchor("monitoring-vpc", "10.4.0.0/16"),
			Resource{ID: "2", Name: "prometheus-server", Spec: ComputeSpec{InstanceType: "t2.medium", AMI: "ami-12345678"}, Dependencies: []string{"1"}},
			Resource{ID: "3", Name: "grafana-server", Spec: ComputeSpec{InstanceType: "t2.small", AMI: "ami-12345678"}, Dependencies: []string{"1"}},
			Resource{ID: "4", Name: "monitoring-logs", Spec: ObjectStorageSpec{ACL: "private"}},
		),
	}
}

func sample(id, name, description string, env Environment, resources ...Resource) Project {
	return Project{
		ID:          id,
		Name:        name,
		Description: description,
		Provider:    "aws",
		Region:      "us-east-1",
		Environment: env,
		UpdatedAt:   sampleUpdatedAt,
		Resources:   resources,
	}
}

func anchor(name, cidr string) Resource {
	return Resource{
		ID:              "1",
		Name:            name,
		Spec:            NetworkSpec{CIDRBlock: cidr, SubnetCIDRMask: "24"},
		IsAnchorNetwork: true,
	}
}
