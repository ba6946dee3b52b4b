package rsbuild

import "testing"

func TestSelectJobs(t *testing.T) {
	const gib = 1 << 30

	cases := []struct {
		name     string
		memBytes uint64
		cpus     int
		override int
		want     int
	}{
		{"low memory forces serial", 2 * gib, 8, 0, 1},
		{"threshold is exclusive", 4 * gib, 8, 0, 1},
		{"plenty of memory uses cpus minus one", 8 * gib, 8, 0, 7},
		{"single cpu clamps to one", 8 * gib, 1, 0, 1},
		{"override wins over low memory", 2 * gib, 8, 4, 4},
		{"override wins over high memory", 16 * gib, 8, 2, 2},
		{"unknown memory treated as constrained", 0, 8, 0, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := selectJobs(tc.memBytes, tc.cpus, tc.override)
			if got != tc.want {
				t.Errorf("selectJobs(%d, %d, %d) = %d, want %d",
					tc.memBytes, tc.cpus, tc.override, got, tc.want)
			}
		})
	}
}
