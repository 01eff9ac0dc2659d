// Package codec encodes request bodies for the search service.
//
// Encode walks maps, slices, pointers and scalars itself so that an
// optional EncodeFunc can rewrite any node before the default rules run.
// By default time.Time is converted to UTC and rendered with second
// precision:
//
//	codec.Encode(map[string]any{"updated": t}, nil)
//	// {"updated":"2012-11-12T14:30:03Z"}
//
//	codec.Encode(map[string]any{"updated": t}, codec.DateOnly)
//	// {"updated":"2012-11-12"}
//
// Values with no JSON form (channels, functions, complex numbers, NaN)
// fail with SERIALIZATION_FAILURE before anything is sent.
package codec
