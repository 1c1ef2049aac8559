// Package votingengine implements the two-phase Voting Engine inside the
// governance-core context.
//
// The module owns the voting state machine: informal and formal phases with
// distinct quorums, stake custody through the reputation ledger, pro-rata
// redistribution of losing stakes, and voter slashing. Consumers interact
// through cross-context summaries; ballots and phase stats stay internal.
package votingengine
