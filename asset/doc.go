// Package asset defines the contract every packaged record type implements,
// the process-local type identity used to gate typed lookups, and the
// structured error taxonomy shared by the compiler and the registry.
//
// API stability:
//
// Stable (SemVer-protected):
//   - The Asset interface, TypeID, TypeIDOf, TypeNameOf, As.
//   - Error kinds and RuleIDs.
//
// TypeID values are only meaningful inside one running process. They must
// never be persisted; the wire-level type tag is AssetTypeName.
package asset
