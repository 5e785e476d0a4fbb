package types

import (
	"encoding/json"

	"github.com/iac-studio/blueprint/internal/project"
)

type NetworkRequest struct {
	Name           string `json:"name" validate:"omitempty,max=128"`
	CIDRBlock      string `json:"cidr_block" validate:"required,cidrv4"`
	SubnetCIDRMask string `json:"subnet_cidr_mask" validate:"omitempty,numeric"`
}

type ProjectCreateRequest struct {
	Name        string         `json:"name" validate:"required,max=128"`
	Description string         `json:"description" validate:"max=1024"`
	Provider    string         `json:"provider" validate:"required,oneof=aws azure gcp"`
	Region      string         `json:"region" validate:"required,region"`
	Environment string         `json:"environment" validate:"required,oneof=development staging production"`
	Network     NetworkRequest `json:"network"`
}

func (r ProjectCreateRequest) Meta() project.Meta {
	return project.Meta{
		Name:        r.Name,
		Description: r.Description,
		Provider:    r.Provider,
		Region:      r.Region,
		Environment: project.Environment(r.Environment),
	}
}

type ProjectUpdateRequest struct {
	Name        string `json:"name" validate:"required,max=128"`
	Description string `json:"description" validate:"max=1024"`
	Provider    string `json:"provider" validate:"required,oneof=aws azure gcp"`
	Region      string `json:"region" validate:"required,region"`
	Environment string `json:"environment" validate:"required,oneof=development staging production"`
}

func (r ProjectUpdateRequest) Meta() project.Meta {
	return project.Meta{
		Name:        r.Name,
		Description: r.Description,
		Provider:    r.Provider,
		Region:      r.Region,
		Environment: project.Environment(r.Environment),
	}
}

// GraphVersionRequest selects the snapshot to make current.
type GraphVersionRequest struct {
	Version int `json:"version" validate:"required,gt=0"`
}

// ResourceRequest adds or edits a resource. On update every field is
// optional and absent fields keep their value.
type ResourceRequest struct {
	Type               string          `json:"type" validate:"omitempty,max=128"`
	IsCustom           bool            `json:"isCustom"`
	Name               *string         `json:"name" validate:"omitempty,min=1,max=128"`
	Code               *string         `json:"code"`
	Properties         json.RawMessage `json:"properties"`
	Dependencies       *[]string       `json:"dependencies" validate:"omitempty,dive,required,max=64"`
	CustomDependencies *[]string       `json:"customDependencies" validate:"omitempty,dive,required,max=64"`
}
