// Package trace provides decision-trace recording for datacenter selection analysis.
// This package has no dependencies on sim/ or sim/cloud/; it stores plain data types.
package trace

// SelectionRecord captures one placement attempt of a creation request.
type SelectionRecord struct {
	VMID       string
	Clock      int64
	Attempt    int // 1-based attempt number within the request
	Datacenter string
	Accepted   bool
}

// AckRecord captures the final outcome of a creation request.
type AckRecord struct {
	VMID    string
	Clock   int64
	Created bool
}
