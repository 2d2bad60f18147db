package sched

// Nice value range. Nice 0 maps to the pivot weight: a nice-0 task
// accrues virtual time 1:1 with real time.
const (
	NiceMin = -20
	NiceMax = 19

	nice0Load = 1024
)

// niceToWeight spans nice -20..19 with roughly exponential spacing, so
// each nice step changes the CPU share by about 10%. Index 0 is nice -20.
var niceToWeight = [40]uint32{
	/* -20 */ 88761, 71755, 56483, 46273, 36291,
	/* -15 */ 29154, 23254, 18705, 14949, 11916,
	/* -10 */ 9548, 7620, 6100, 4904, 3906,
	/*  -5 */ 3121, 2501, 1991, 1586, 1277,
	/*   0 */ 1024, 820, 655, 526, 423,
	/*   5 */ 335, 272, 215, 172, 137,
	/*  10 */ 110, 87, 70, 56, 45,
	/*  15 */ 36, 29, 23, 18, 15,
}

// WeightOf maps a nice value to its scheduling weight, clamping out-of-
// range input.
func WeightOf(nice int8) uint32 {
	n := int(nice)
	if n < NiceMin {
		n = NiceMin
	} else if n > NiceMax {
		n = NiceMax
	}
	return niceToWeight[n-NiceMin]
}

// deltaFair scales a real-time delta into virtual time for the given nice
// value: delta * nice0Load / weight. Heavier tasks accrue virtual time
// more slowly and are therefore re-selected sooner.
func deltaFair(delta uint64, nice int8) uint64 {
	w := uint64(WeightOf(nice))
	if w == nice0Load {
		return delta
	}
	return delta * nice0Load / w
}
