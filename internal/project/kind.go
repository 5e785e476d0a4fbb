package project

import "strings"

// Kind identifies the variant of a Resource. The string values are the
// type names used in persisted project blobs.
type Kind string

const (
	KindNetwork            Kind = "VPC"
	KindCompute            Kind = "EC2"
	KindObjectStorage      Kind = "S3"
	KindRelationalDatabase Kind = "RDS"
	KindCustom             Kind = "Custom"
)

// Kinds lists the built-in kinds in display order.
var Kinds = []Kind{KindNetwork, KindCompute, KindObjectStorage, KindRelationalDatabase, KindCustom}

// ParseKind maps a persisted type name onto a Kind. Anything that is not one
// of the typed kinds is a free-form custom type.
func ParseKind(s string) Kind {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "VPC", "NETWORK":
		return KindNetwork
	case "EC2", "COMPUTE":
		return KindCompute
	case "S3", "OBJECTSTORAGE":
		return KindObjectStorage
	case "RDS", "RELATIONALDATABASE":
		return KindRelationalDatabase
	default:
		return KindCustom
	}
}

// Description returns the human label shown next to a kind.
func (k Kind) Description() string {
	switch k {
	case KindNetwork:
		return "VPC Network"
	case KindCompute:
		return "EC2 Instance"
	case KindObjectStorage:
		return "S3 Bucket"
	case KindRelationalDatabase:
		return "RDS Database"
	default:
		return "Custom Resource"
	}
}

func (k Kind) String() string { return string(k) }
