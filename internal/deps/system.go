package deps

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/cpuid/v2"

	"github.com/roach88/tagproxy/internal/tag"
)

// Keyword builds one of the synthetic sets by name.
func Keyword(name string) (*Set, error) {
	switch name {
	case "cpuinfo":
		return Cpuinfo()
	case "rpmlib":
		return Rpmlib()
	case "getconf":
		return Getconf()
	case "uname":
		return Uname()
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKeyword, name)
}

// Cpuinfo describes the processor: one cpuinfo(<feature>) entry per
// detected feature plus family, model and vendor.
func Cpuinfo() (*Set, error) {
	cpu := cpuid.CPU

	var entries []Dependency
	for _, f := range cpu.FeatureSet() {
		entries = append(entries, Dependency{N: "cpuinfo(" + strings.ToLower(f) + ")"})
	}
	entries = append(entries,
		Dependency{N: "cpuinfo(cpu_family)", EVR: strconv.Itoa(cpu.Family), Flags: SenseEqual},
		Dependency{N: "cpuinfo(model)", EVR: strconv.Itoa(cpu.Model), Flags: SenseEqual},
	)
	if v := cpu.VendorString; v != "" {
		entries = append(entries, Dependency{N: "cpuinfo(vendor)", EVR: v, Flags: SenseEqual})
	}
	if b := strings.TrimSpace(cpu.BrandName); b != "" {
		entries = append(entries, Dependency{N: "cpuinfo(model_name)", EVR: b, Flags: SenseEqual})
	}
	sortByName(entries)
	return newSet(tag.ProvideName, entries)
}

var rpmlibFeatures = []struct {
	name, evr string
}{
	{"BuiltinLuaScripts", "4.2.2-1"},
	{"CompressedFileNames", "3.0.4-1"},
	{"ConcurrentAccess", "4.1-1"},
	{"ExplicitPackageProvide", "4.0-1"},
	{"FileDigests", "4.6.0-1"},
	{"HeaderLoadSortsTags", "4.0.1-1"},
	{"PartialHardlinkSets", "4.0.4-1"},
	{"PayloadFilesHavePrefix", "4.0-1"},
	{"PayloadIsBzip2", "3.0.5-1"},
	{"PayloadIsLzma", "4.4.6-1"},
	{"PayloadIsXz", "5.2-1"},
	{"PayloadIsZstd", "5.4.18-1"},
	{"ScriptletInterpreterArgs", "4.0.3-1"},
	{"VersionedDependencies", "3.0.3-1"},
}

// Rpmlib lists the package format features this implementation provides.
func Rpmlib() (*Set, error) {
	entries := make([]Dependency, len(rpmlibFeatures))
	for i, f := range rpmlibFeatures {
		entries[i] = Dependency{
			N:     "rpmlib(" + f.name + ")",
			EVR:   f.evr,
			Flags: SenseRPMLib | SenseEqual,
		}
	}
	return newSet(tag.ProvideName, entries)
}

// Getconf reports system configuration values as getconf(<NAME>) = value.
func Getconf() (*Set, error) {
	vals := map[string]int{
		"PAGESIZE":          os.Getpagesize(),
		"PAGE_SIZE":         os.Getpagesize(),
		"_NPROCESSORS_ONLN": runtime.NumCPU(),
		"LONG_BIT":          strconv.IntSize,
	}
	if n := cpuid.CPU.CacheLine; n > 0 {
		vals["LEVEL1_DCACHE_LINESIZE"] = n
	}
	if n := cpuid.CPU.Cache.L1D; n > 0 {
		vals["LEVEL1_DCACHE_SIZE"] = n
	}
	if n := cpuid.CPU.Cache.L1I; n > 0 {
		vals["LEVEL1_ICACHE_SIZE"] = n
	}
	if n := cpuid.CPU.Cache.L2; n > 0 {
		vals["LEVEL2_CACHE_SIZE"] = n
	}

	entries := make([]Dependency, 0, len(vals))
	for k, v := range vals {
		entries = append(entries, Dependency{
			N:     "getconf(" + k + ")",
			EVR:   strconv.Itoa(v),
			Flags: SenseEqual,
		})
	}
	sortByName(entries)
	return newSet(tag.ProvideName, entries)
}

// Uname reports the kernel identity as uname(<field>) = value.
func Uname() (*Set, error) {
	fields := unameFields()
	entries := make([]Dependency, 0, len(fields))
	for _, f := range []string{"sysname", "nodename", "release", "version", "machine"} {
		v, ok := fields[f]
		if !ok || v == "" {
			continue
		}
		entries = append(entries, Dependency{N: "uname(" + f + ")", EVR: v, Flags: SenseEqual})
	}
	return newSet(tag.ProvideName, entries)
}

func sortByName(entries []Dependency) {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].N < entries[j].N })
}

// fallbackUname is used where the kernel cannot be asked.
func fallbackUname() map[string]string {
	host, _ := os.Hostname()
	return map[string]string{
		"sysname":  runtime.GOOS,
		"nodename": host,
		"machine":  runtime.GOARCH,
	}
}
