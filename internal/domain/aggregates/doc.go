// Package aggregates defines domain-facing aggregate contracts.
//
// These contracts avoid persistence/transport details and describe the write
// boundaries where entity and association invariants are enforced atomically.
package aggregates
