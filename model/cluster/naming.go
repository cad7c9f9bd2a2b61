package cluster

import (
	"fmt"
	"strings"
)

const (
	// DefaultExternalSuffix is the suffix the cloud provider uses for cluster names.
	DefaultExternalSuffix = "-dev-eks-cluster"
	// DefaultInternalSuffix is the suffix used by exclusion tracking.
	DefaultInternalSuffix = "-infra"
)

// ID is the canonical cluster identifier used as the key of all exclusion state.
type ID string

// String returns the identifier as string
func (i ID) String() string { return string(i) }

// Naming maps user supplied cluster names between the external (cloud) and
// internal (exclusion tracking) conventions.
type Naming struct {
	ExternalSuffix string `json:"externalSuffix" yaml:"externalSuffix"`
	InternalSuffix string `json:"internalSuffix" yaml:"internalSuffix"`
}

// DefaultNaming is used by the package level helpers.
var DefaultNaming = Naming{
	ExternalSuffix: DefaultExternalSuffix,
	InternalSuffix: DefaultInternalSuffix,
}

// Init fills empty suffixes with defaults.
func (n *Naming) Init() {
	if n.ExternalSuffix == "" {
		n.ExternalSuffix = DefaultExternalSuffix
	}
	if n.InternalSuffix == "" {
		n.InternalSuffix = DefaultInternalSuffix
	}
}

// Validate checks that the suffixes keep Normalize idempotent: neither may
// carry surrounding whitespace and neither may end with the other.
func (n Naming) Validate() error {
	n.Init()
	for _, suffix := range []string{n.ExternalSuffix, n.InternalSuffix} {
		if strings.TrimSpace(suffix) != suffix {
			return fmt.Errorf("suffix %q has surrounding whitespace", suffix)
		}
	}
	if strings.HasSuffix(n.InternalSuffix, n.ExternalSuffix) || strings.HasSuffix(n.ExternalSuffix, n.InternalSuffix) {
		return fmt.Errorf("suffixes %q and %q overlap", n.ExternalSuffix, n.InternalSuffix)
	}
	return nil
}

// Normalize strips the external suffix and appends the internal one when absent.
// Normalize(Normalize(x)) == Normalize(x) for any x when Validate succeeds.
func (n Naming) Normalize(raw string) ID {
	name := strings.TrimSpace(raw)
	if n.ExternalSuffix != "" {
		name = strings.TrimSuffix(name, n.ExternalSuffix)
	}
	if !strings.HasSuffix(name, n.InternalSuffix) {
		name += n.InternalSuffix
	}
	return ID(name)
}

// ExternalName returns the name the cloud provider knows the cluster by.
func (n Naming) ExternalName(raw string) string {
	name := strings.TrimSpace(raw)
	if strings.HasSuffix(name, n.ExternalSuffix) {
		return name
	}
	return name + n.ExternalSuffix
}

// Normalize uses DefaultNaming
func Normalize(raw string) ID { return DefaultNaming.Normalize(raw) }

// ExternalName uses DefaultNaming
func ExternalName(raw string) string { return DefaultNaming.ExternalName(raw) }
