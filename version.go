package rocblas

import (
	"fmt"
	"runtime/debug"
)

const root = "github.com/estewart08/rocBLAS"

// Library version reported by GetVersionString, following the
// major.minor.patch scheme of the C library this package mirrors.
const (
	versionMajor = 1
	versionMinor = 0
	versionPatch = 0
)

// GetVersionString returns the library's semantic version.
func GetVersionString() string {
	return fmt.Sprintf("%d.%d.%d", versionMajor, versionMinor, versionPatch)
}

// Version reports the version and checksum of this module as recorded in
// the running binary's build information. Both are empty when the binary
// was built without module support or does not list the module as a
// dependency, which includes this package's own test binary.
func Version() (version, sum string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	return moduleVersion(info)
}

// moduleVersion scans a binary's dependency list for this module. Under a
// replace directive the reported checksum is the replacement's, since
// that is the code actually linked; filesystem replacements carry none.
func moduleVersion(info *debug.BuildInfo) (version, sum string) {
	for _, dep := range info.Deps {
		if dep.Path != root {
			continue
		}
		if r := dep.Replace; r != nil {
			target := r.Path
			if r.Version != "" {
				target += "@" + r.Version
			}
			return fmt.Sprintf("%s (replaced by %s)", dep.Version, target), r.Sum
		}
		return dep.Version, dep.Sum
	}
	return "", ""
}
