package rsbuild

import (
	"os"

	"golang.org/x/sys/unix"
)

// memJobThreshold is the memory size above which parallel compilation is
// considered safe. Below it, librealsense's C++ translation units are large
// enough that parallel jobs routinely OOM on small boards.
const memJobThreshold = 4 << 30 // ~4 GiB

// Fixed CUDA toolchain locations on the target host family.
const (
	cudaHome     = "/usr/local/cuda"
	cudaCompiler = cudaHome + "/bin/nvcc"
)

// selectJobs computes the compile job count from total memory, logical CPU
// count, and an optional explicit override. Pure function so the sizing
// heuristic is testable without touching a real build.
func selectJobs(memBytes uint64, cpus int, override int) int {
	if override > 0 {
		return override
	}
	if memBytes > memJobThreshold {
		jobs := cpus - 1
		if jobs < 1 {
			jobs = 1
		}
		return jobs
	}
	return 1
}

// readTotalMemory returns the total system memory in bytes, or 0 when the
// host does not answer (which selectJobs treats as memory-constrained).
func readTotalMemory() uint64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		debugf("sysinfo failed: %v\n", err)
		return 0
	}
	return uint64(info.Totalram) * uint64(info.Unit)
}

// cudaToolkitPresent reports whether the fixed CUDA toolchain exists.
func cudaToolkitPresent() bool {
	_, err := os.Stat(cudaCompiler)
	return err == nil
}
