package easyfuse

// StatFs is the eight-field geometry record a statfs reply carries (spec.md
// §4.E reply-shape table). Block/fragment sizes are in bytes; Blocks/
// BlocksFree/BlocksAvailable and Files/FilesFree are counts of that unit.
type StatFs struct {
	Blocks, BlocksFree, BlocksAvailable uint64
	Files, FilesFree                   uint64
	BlockSize                          uint32
	MaxNameLength                      uint32
	FragmentSize                       uint32
}

// DefaultStatFs reports an effectively unbounded filesystem with common
// block geometry, for handlers that have no real notion of capacity.
func DefaultStatFs() StatFs {
	return StatFs{
		Blocks:          1 << 30,
		BlocksFree:      1 << 30,
		BlocksAvailable: 1 << 30,
		Files:           1 << 20,
		FilesFree:       1 << 20,
		BlockSize:       4096,
		FragmentSize:    4096,
		MaxNameLength:   255,
	}
}
