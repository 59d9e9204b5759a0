// Package sim provides the discrete-event kernel and the per-host resource
// model of the cloud simulator.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - kernel.go: the event queue, ordered by (fire time, submission sequence), and RunUntil
//   - process.go: cooperative processes with Timeout, Wait and Interrupt
//   - event.go: event types that drive the kernel
//
// Then the resource model, bottom-up:
//   - provisioner.go: one ledger per resource kind with allocate, deallocate and a suitability check
//   - host.go: four ledgers plus an atomic CreateVM
//   - allocation.go: VM-to-host placement policies
//   - power_model.go: host utilization to watts
//
// # Architecture
//
// The sim package holds the pieces that know nothing about datacenters;
// composition lives in sub-packages:
//   - sim/cloud/: datacenters, energy accounting, the cloud retry loop, the broker and DC selection policies
//   - sim/agent/: reference agents for the learned selection policy
//   - sim/workload/: CSV ingestion and synthetic workloads
//   - sim/trace/: decision trace recording
//   - sim/export/: history and metrics sinks
//
// # Key Interfaces
//
//   - Event: anything the kernel can fire
//   - AllocationPolicy: choose a host for a VM within one datacenter
//   - PowerModel: map host utilization to a draw in watts
package sim
