package strata

// A page is the unit of compression and I/O: it carries a fixed number of
// top-level rows and is self-describing given only the logical type of its
// column. Three layouts exist, selected by the column type and never
// repeated in the page bytes (all integers little-endian):
//
//	plain:    codec:u8 | compressed:u32 | uncompressed:u32 | values
//	nullable: def_len:u32 | def block | values...
//	nested:   offsets_len:u32 | rep_len:u32 | def_len:u32 |
//	          rep block | def block | values...
//
// The values region repeats the plain framing once per physical buffer of
// the leaf type: binary leaves write an offsets block then a bytes block,
// and struct fields each contribute their own full block sequence in field
// order, over the rows where the struct is present.
//
// Level blocks are internally packed as codec:u8 | count:u32 | payload;
// the packing is transparent to top-level parsing, which only uses the
// declared block lengths.

const (
	// blockHeaderSize is the codec id plus the two size fields framing a
	// compressed values block.
	blockHeaderSize = 9

	// levelHeaderSize is the codec id plus the level count framing a packed
	// level stream.
	levelHeaderSize = 5

	// nestedHeaderSize is the offsets_len, rep_len and def_len fields
	// opening a nested page.
	nestedHeaderSize = 12
)
