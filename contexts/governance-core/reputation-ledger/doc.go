// Package reputationledger implements the Reputation Ledger inside the
// governance-core context.
//
// The module owns the non-transferable reputation currency: mint/burn,
// stake holds backing votes, the passive ledger for external workers, and
// the owner/whitelist access list. Business rules live in application and
// domain layers; infrastructure sits behind ports and adapters.
package reputationledger
