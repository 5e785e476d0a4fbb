package project

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	appErr "github.com/iac-studio/blueprint/pkg/errors"
)

// Spec is the kind specific part of a Resource.
type Spec interface {
	Kind() Kind
	// Properties returns the spec as the flat property map shown to users.
	Properties() map[string]any
}

// NetworkSpec configures a VPC.
type NetworkSpec struct {
	CIDRBlock          string `json:"cidr_block" validate:"required,cidrv4"`
	SubnetCIDRMask     string `json:"subnet_cidr_mask,omitempty" validate:"omitempty,numeric"`
	EnableDNSSupport   *bool  `json:"enable_dns_support,omitempty"`
	EnableDNSHostnames *bool  `json:"enable_dns_hostnames,omitempty"`
}

func (NetworkSpec) Kind() Kind { return KindNetwork }

func (s NetworkSpec) Properties() map[string]any {
	p := map[string]any{"cidr_block": s.CIDRBlock}
	if s.SubnetCIDRMask != "" {
		p["subnet_cidr_mask"] = s.SubnetCIDRMask
	}
	putBool(p, "enable_dns_support", s.EnableDNSSupport)
	putBool(p, "enable_dns_hostnames", s.EnableDNSHostnames)
	return p
}

// ComputeSpec configures an EC2 instance.
type ComputeSpec struct {
	InstanceType      string `json:"instance_type" validate:"required"`
	AMI               string `json:"ami" validate:"required"`
	KeyName           string `json:"key_name,omitempty"`
	AssociatePublicIP *bool  `json:"associate_public_ip_address,omitempty"`
}

func (ComputeSpec) Kind() Kind { return KindCompute }

func (s ComputeSpec) Properties() map[string]any {
	p := map[string]any{"instance_type": s.InstanceType, "ami": s.AMI}
	if s.KeyName != "" {
		p["key_name"] = s.KeyName
	}
	putBool(p, "associate_public_ip_address", s.AssociatePublicIP)
	return p
}

// ObjectStorageSpec configures an S3 bucket.
type ObjectStorageSpec struct {
	Bucket     string `json:"bucket,omitempty"`
	ACL        string `json:"acl,omitempty" validate:"omitempty,oneof=private public-read public-read-write"`
	Versioning *bool  `json:"versioning,omitempty"`
}

func (ObjectStorageSpec) Kind() Kind { return KindObjectStorage }

func (s ObjectStorageSpec) Properties() map[string]any {
	p := map[string]any{}
	if s.Bucket != "" {
		p["bucket"] = s.Bucket
	}
	if s.ACL != "" {
		p["acl"] = s.ACL
	}
	putBool(p, "versioning", s.Versioning)
	return p
}

// DefaultAllocatedStorage is the size in GB used when a database payload
// leaves allocated_storage out.
const DefaultAllocatedStorage = 20

// DatabaseSpec configures an RDS instance.
type DatabaseSpec struct {
	Engine           string `json:"engine" validate:"required,oneof=mysql postgres mariadb oracle-ee sqlserver-ex"`
	InstanceClass    string `json:"instance_class" validate:"required"`
	AllocatedStorage int    `json:"allocated_storage" validate:"gt=0"`
	MultiAZ          *bool  `json:"multi_az,omitempty"`
}

func (DatabaseSpec) Kind() Kind { return KindRelationalDatabase }

func (s DatabaseSpec) Properties() map[string]any {
	p := map[string]any{
		"engine":            s.Engine,
		"instance_class":    s.InstanceClass,
		"allocated_storage": s.AllocatedStorage,
	}
	putBool(p, "multi_az", s.MultiAZ)
	return p
}

// CustomSpec is a free-form resource: a user chosen type label, a code
// snippet and string parameters.
type CustomSpec struct {
	Type   string            `json:"-" validate:"required"`
	Code   string            `json:"-"`
	Params map[string]string `json:"-" validate:"dive,keys,required,endkeys"`
}

func (CustomSpec) Kind() Kind { return KindCustom }

func (s CustomSpec) Properties() map[string]any {
	p := make(map[string]any, len(s.Params))
	for k, v := range s.Params {
		p[k] = v
	}
	return p
}

func putBool(p map[string]any, key string, v *bool) {
	if v != nil {
		p[key] = *v
	}
}

// Bool returns a pointer to b, for optional spec flags.
func Bool(b bool) *bool { return &b }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	return v
}

// ValidateSpec checks a spec against its property schema.
func ValidateSpec(s Spec) error {
	if s == nil || isNilSpec(s) {
		return appErr.New(appErr.CodeInvalid, "resource properties are required")
	}
	if err := validate.Struct(s); err != nil {
		return appErr.Wrap(err, appErr.CodeInvalid, describeValidation("invalid properties", err))
	}
	return nil
}

func isNilSpec(s Spec) bool {
	v := reflect.ValueOf(s)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

func describeValidation(prefix string, err error) string {
	var verrs validator.ValidationErrors
	if !asValidationErrors(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag()))
	}
	sort.Strings(msgs)
	return prefix + ": " + strings.Join(msgs, "; ")
}

func asValidationErrors(err error, out *validator.ValidationErrors) bool {
	v, ok := err.(validator.ValidationErrors)
	if ok {
		*out = v
	}
	return ok
}

// DecodeSpec builds the variant for kind from a JSON property object.
// typeLabel and code only apply to custom resources.
func DecodeSpec(kind Kind, typeLabel, code string, raw json.RawMessage) (Spec, error) {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	switch kind {
	case KindNetwork:
		var s NetworkSpec
		err := json.Unmarshal(raw, &s)
		return s, err
	case KindCompute:
		var s ComputeSpec
		err := json.Unmarshal(raw, &s)
		return s, err
	case KindObjectStorage:
		var s ObjectStorageSpec
		err := json.Unmarshal(raw, &s)
		return s, err
	case KindRelationalDatabase:
		s := DatabaseSpec{AllocatedStorage: DefaultAllocatedStorage}
		err := json.Unmarshal(raw, &s)
		return s, err
	default:
		var props map[string]any
		if err := json.Unmarshal(raw, &props); err != nil {
			return nil, err
		}
		s := CustomSpec{Type: typeLabel, Code: code}
		if len(props) > 0 {
			s.Params = make(map[string]string, len(props))
			for k, v := range props {
				s.Params[k] = fmt.Sprint(v)
			}
		}
		return s, nil
	}
}

// UnmarshalJSON accepts subnet_cidr_mask as a string (form payloads) or a
// number (older blobs).
func (s *NetworkSpec) UnmarshalJSON(b []byte) error {
	type plain NetworkSpec
	aux := struct {
		*plain
		SubnetCIDRMask any `json:"subnet_cidr_mask,omitempty"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	switch v := aux.SubnetCIDRMask.(type) {
	case nil:
		s.SubnetCIDRMask = ""
	case string:
		s.SubnetCIDRMask = v
	case float64:
		s.SubnetCIDRMask = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Errorf("subnet_cidr_mask: unexpected %T", v)
	}
	return nil
}
