package format

// FileMagic is the fixed 8-byte sequence opening every archive (spec §6
// item 1). Kept as a constant in this leaf package rather than mutable
// process state, per spec §9 DESIGN NOTES ("Global mutable state ...:
// expose as constants in a single module, never as mutable process
// state").
var FileMagic = [8]byte{'G', 'V', 'A', 'R', 'N', 'T', 0x01, 0x00}

// EOFMarker is the fixed 32-byte sequence closing the archive footer (spec
// §6 item 6: "32-byte EOF marker").
var EOFMarker = [32]byte{
	'G', 'O', 'V', 'A', 'R', 'I', 'A', 'N', 'T', '-', 'E', 'O', 'F',
}
