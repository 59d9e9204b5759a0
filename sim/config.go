package sim

import "fmt"

// HostSpec describes Count identical hosts.
type HostSpec struct {
	Count    int       `yaml:"count"`
	Capacity Resources `yaml:"capacity"`
	Power    PowerSpec `yaml:"power"`
}

// DatacenterSpec describes one datacenter's host groups. Groups keep their
// input order; host ids are assigned sequentially across groups.
type DatacenterSpec struct {
	ID    string     `yaml:"id"`
	Hosts []HostSpec `yaml:"hosts"`
}

// NumHosts returns the total number of hosts across groups.
func (d DatacenterSpec) NumHosts() int {
	n := 0
	for _, h := range d.Hosts {
		n += h.Count
	}
	return n
}

// Validate checks counts, capacities and power parameters.
func (d DatacenterSpec) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("datacenter id must not be empty")
	}
	if d.NumHosts() < 1 {
		return fmt.Errorf("datacenter %s: at least one host required", d.ID)
	}
	for i, h := range d.Hosts {
		if h.Count < 0 {
			return fmt.Errorf("datacenter %s host group %d: count must be non-negative, got %d", d.ID, i, h.Count)
		}
		if err := h.Capacity.Validate(); err != nil {
			return fmt.Errorf("datacenter %s host group %d: %w", d.ID, i, err)
		}
		if _, err := NewLinearPowerModel(h.Power); err != nil {
			return fmt.Errorf("datacenter %s host group %d: %w", d.ID, i, err)
		}
	}
	return nil
}

// BuildHosts instantiates every host of the spec with the named power model.
func (d DatacenterSpec) BuildHosts(powerModel string) ([]*Host, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	hosts := make([]*Host, 0, d.NumHosts())
	for _, group := range d.Hosts {
		for i := 0; i < group.Count; i++ {
			model, err := NewPowerModel(powerModel, group.Power)
			if err != nil {
				return nil, fmt.Errorf("datacenter %s: %w", d.ID, err)
			}
			hosts = append(hosts, NewHost(len(hosts), group.Capacity, model))
		}
	}
	return hosts, nil
}
