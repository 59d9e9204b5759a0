package sim

import "fmt"

// ResourceKind names one of the four dimensions a host provisions.
type ResourceKind int

const (
	Compute ResourceKind = iota
	Memory
	Bandwidth
	Storage
	numResourceKinds
)

// ResourceKinds lists every kind in canonical order.
var ResourceKinds = [...]ResourceKind{Compute, Memory, Bandwidth, Storage}

func (k ResourceKind) String() string {
	switch k {
	case Compute:
		return "compute"
	case Memory:
		return "memory"
	case Bandwidth:
		return "bandwidth"
	case Storage:
		return "storage"
	}
	return fmt.Sprintf("ResourceKind(%d)", int(k))
}

// Resources holds one amount per resource kind. Compute is in MIPS, memory and
// storage in MB, bandwidth in Mbps.
type Resources struct {
	Compute   float64 `yaml:"compute"`
	Memory    float64 `yaml:"memory"`
	Bandwidth float64 `yaml:"bandwidth"`
	Storage   float64 `yaml:"storage"`
}

// Get returns the amount for kind.
func (r Resources) Get(kind ResourceKind) float64 {
	switch kind {
	case Compute:
		return r.Compute
	case Memory:
		return r.Memory
	case Bandwidth:
		return r.Bandwidth
	case Storage:
		return r.Storage
	}
	panic(fmt.Sprintf("Resources.Get: unknown kind %d", int(kind)))
}

// Set updates the amount for kind.
func (r *Resources) Set(kind ResourceKind, v float64) {
	switch kind {
	case Compute:
		r.Compute = v
	case Memory:
		r.Memory = v
	case Bandwidth:
		r.Bandwidth = v
	case Storage:
		r.Storage = v
	default:
		panic(fmt.Sprintf("Resources.Set: unknown kind %d", int(kind)))
	}
}

// Validate rejects negative amounts.
func (r Resources) Validate() error {
	for _, kind := range ResourceKinds {
		if r.Get(kind) < 0 {
			return fmt.Errorf("%s must be non-negative, got %f", kind, r.Get(kind))
		}
	}
	return nil
}
