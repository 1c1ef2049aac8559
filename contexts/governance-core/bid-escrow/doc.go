// Package bidescrow implements the job marketplace inside the
// governance-core context.
//
// The module owns job offers with two-window auctions, escrowed bids, and
// jobs adjudicated through the voting engine. Payments and anti-spam fees are
// held in a native-currency treasury; worker stakes are held as reputation
// for onboarded workers and currency for external ones. Settlement follows a
// phase/result/worker-type matrix, including the grace-period takeover of
// abandoned jobs.
package bidescrow
