// Package codec turns Go values into bytes and back.
//
// Every type is resolved once, per Registry, to exactly one strategy:
//   - native: *T implements MarshalSuit and UnmarshalSuit
//   - handler: a Handler[T] was registered
//   - fields: *T implements SuitFields, listing its members in wire order
//   - scalar: bool, integers, floats and named types over them
//
// A top-level body is an optional version tag, a reserved u32 and the
// strategy output. Protected encodings wrap the body in a frame carrying
// its size, a CRC-32C checksum, the "SUITCASE" magic and zeroed flags.
// Members of a composite are always written in lightweight form (tag and
// body only), so only the outermost call decides whether a frame exists.
//
// Types that implement SuitHistory carry the index of their current shape
// as the version tag. Decoding an older tag loads the historical shape and
// converts it forward through every ConvertFrom step up to the current
// type:
//
//	func (p *Profile) SuitHistory() codec.History {
//	    return codec.NewHistory(
//	        codec.Initial[ProfileV0](),
//	        codec.Then[ProfileV1, ProfileV0](),
//	        codec.Then[Profile, ProfileV1](),
//	    )
//	}
//
// Schema defects (no strategy, a broken history, a tag newer than the
// current version) are returned as errors matching ErrSchema, never as
// panics.
package codec
