// Package milestone_index provides the index type used to totally order
// coordinator-signed milestones.
package milestone_index

import "fmt"

// MilestoneIndex is a monotone, non-negative milestone sequence number.
type MilestoneIndex uint32

// String implements fmt.Stringer.
func (m MilestoneIndex) String() string {
	return fmt.Sprintf("%d", uint32(m))
}
