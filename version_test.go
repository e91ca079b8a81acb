package rocblas

import (
	"regexp"
	"runtime/debug"
	"testing"
)

func TestGetVersionString(t *testing.T) {
	v := GetVersionString()
	if ok, _ := regexp.MatchString(`^\d+\.\d+\.\d+$`, v); !ok {
		t.Errorf("GetVersionString() = %q, want major.minor.patch", v)
	}
}

func TestVersionInTestBinary(t *testing.T) {
	// The test binary builds this package as the main module, so it
	// never appears in its own dependency list.
	version, sum := Version()
	if version != "" || sum != "" {
		t.Errorf("Version() = %q, %q, want empty in test binary", version, sum)
	}
}

func TestModuleVersionResolution(t *testing.T) {
	cases := []struct {
		name    string
		dep     debug.Module
		version string
		sum     string
	}{
		{
			name:    "plain",
			dep:     debug.Module{Path: root, Version: "v1.2.3", Sum: "h1:abc="},
			version: "v1.2.3",
			sum:     "h1:abc=",
		},
		{
			name: "replaced_module",
			dep: debug.Module{Path: root, Version: "v1.2.3", Replace: &debug.Module{
				Path: "example.com/fork/rocBLAS", Version: "v1.2.4", Sum: "h1:def=",
			}},
			version: "v1.2.3 (replaced by example.com/fork/rocBLAS@v1.2.4)",
			sum:     "h1:def=",
		},
		{
			name: "replaced_directory",
			dep: debug.Module{Path: root, Version: "v1.2.3", Replace: &debug.Module{
				Path: "../rocBLAS",
			}},
			version: "v1.2.3 (replaced by ../rocBLAS)",
			sum:     "",
		},
		{
			name:    "absent",
			dep:     debug.Module{Path: "example.com/unrelated", Version: "v9.0.0"},
			version: "",
			sum:     "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			info := &debug.BuildInfo{Deps: []*debug.Module{
				{Path: "example.com/other", Version: "v0.1.0"},
				&tc.dep,
			}}
			version, sum := moduleVersion(info)
			if version != tc.version || sum != tc.sum {
				t.Errorf("moduleVersion() = %q, %q, want %q, %q", version, sum, tc.version, tc.sum)
			}
		})
	}
}
