package asset

// Asset is the capability set every packaged record type provides.
//
// Contract:
//   - AssetType MUST return the same TypeID for every instance of a
//     concrete type and distinct values across types. TypeIDOf[T] on the
//     record's struct type is the usual implementation; lookups compare
//     against whatever a zero T reports, so TypeIDOf[*T] works too.
//   - AssetTypeName MUST be unique per record type and identical between
//     the program that compiles a pack and the program that loads it.
//   - AssetName is the logical identifier, unique within its type.
//   - MarshalBinary MUST be deterministic. The pointer type MUST implement
//     encoding.BinaryUnmarshaler accepting exactly what MarshalBinary
//     produces.
//
// Implementations are read concurrently once loaded and must not mutate
// themselves from these methods.
type Asset interface {
	AssetType() TypeID
	AssetTypeName() string
	AssetName() string
	MarshalBinary() ([]byte, error)
}

// As re-specializes a to T. It reports false instead of panicking when a
// does not hold a T.
func As[T any](a Asset) (T, bool) {
	v, ok := a.(T)
	return v, ok
}
