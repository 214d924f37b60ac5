// Package integration contains the Integration bounded context.
// This context turns records of the Plentymarkets commerce platform into the
// canonical transfer objects consumed by the downstream connector pipeline.
//
// Key concepts:
//   - Identity: Mapping between an adapter identifier and a canonical object identifier
//   - RawProduct / RawVariant: Immutable input records as read from the platform
//   - Variation / Stock: Canonical transfer objects produced for a raw variant
//   - ResultSet: Insertion-ordered accumulator of produced transfer objects
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
