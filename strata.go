// Package strata implements a columnar page codec: it splits arrays of a
// logical type into fixed-size pages, encodes each page with per-block
// adaptive compression, and reassembles the arrays on read.
//
// Pages are self-describing given only the column type. Flat required
// columns use a plain layout, flat optional columns prepend a definition
// level stream, and nested columns (lists, maps, structs) prepend
// repetition and definition level streams in the manner of Dremel record
// shredding.
//
// The page format is versioned only through its codec ids: new codecs get
// new ids, existing ids are never reassigned, so readers can always reject
// pages they cannot decode with ErrUnsupportedCodec.
package strata
