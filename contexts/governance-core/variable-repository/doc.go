// Package variablerepository implements the governance parameter store
// inside the governance-core context.
//
// Parameters update immediately or at a scheduled future activation time,
// and Snapshot captures the active set into the immutable configuration the
// voting engine and bid escrow pin at creation.
package variablerepository
