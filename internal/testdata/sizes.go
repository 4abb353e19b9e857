package testdata

type Size struct {
	Name string
	N    int
}

var Sizes []Size = []Size{
	{"64B", 64},
	{"1KiB", 1 << 10},
	{"4KiB", 4 << 10},
	{"64KiB", 64 << 10},
	{"1MiB", 1 << 20},
	{"16MiB", 16 << 20},
}
