// Package keys seals compiled packs with detached signatures and manages
// the local signing keys.
//
// A Seal binds a signer's issuer key to one exact pack. It travels next to
// the pack (conventionally as <pack>.seal) and is encoded as deterministic
// CBOR. Loading a pack never requires a seal; verifying one is an explicit
// step for programs that ship packs over untrusted channels.
//
// Supported algorithms are ed25519 and dilithium3 (CRYSTALS-Dilithium,
// mode 3) over a sha256, sha512 or sha3-256 digest.
package keys
