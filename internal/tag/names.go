package tag

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Tag is the integer key of a header entry.
type Tag int32

const (
	HeaderI18NTable Tag = 100
	SigMD5          Tag = 261

	Name            Tag = 1000
	Version         Tag = 1001
	Release         Tag = 1002
	Epoch           Tag = 1003
	Summary         Tag = 1004
	Description     Tag = 1005
	BuildTime       Tag = 1006
	BuildHost       Tag = 1007
	Size            Tag = 1009
	License         Tag = 1014
	Group           Tag = 1016
	URL             Tag = 1020
	OS              Tag = 1021
	Arch            Tag = 1022
	FileSizes       Tag = 1028
	FileModes       Tag = 1030
	ProvideName     Tag = 1047
	RequireFlags    Tag = 1048
	RequireName     Tag = 1049
	RequireVersion  Tag = 1050
	ConflictFlags   Tag = 1053
	ConflictName    Tag = 1054
	ConflictVersion Tag = 1055
	ObsoleteName    Tag = 1090
	ProvideFlags    Tag = 1112
	ProvideVersion  Tag = 1113
	ObsoleteFlags   Tag = 1114
	ObsoleteVersion Tag = 1115
	DirIndexes      Tag = 1116
	BaseNames       Tag = 1117
	DirNames        Tag = 1118
	FileColors      Tag = 1140
)

var tagNames = map[Tag]string{
	HeaderI18NTable: "HEADERI18NTABLE",
	SigMD5:          "SIGMD5",
	Name:            "NAME",
	Version:         "VERSION",
	Release:         "RELEASE",
	Epoch:           "EPOCH",
	Summary:         "SUMMARY",
	Description:     "DESCRIPTION",
	BuildTime:       "BUILDTIME",
	BuildHost:       "BUILDHOST",
	Size:            "SIZE",
	License:         "LICENSE",
	Group:           "GROUP",
	URL:             "URL",
	OS:              "OS",
	Arch:            "ARCH",
	FileSizes:       "FILESIZES",
	FileModes:       "FILEMODES",
	ProvideName:     "PROVIDENAME",
	RequireFlags:    "REQUIREFLAGS",
	RequireName:     "REQUIRENAME",
	RequireVersion:  "REQUIREVERSION",
	ConflictFlags:   "CONFLICTFLAGS",
	ConflictName:    "CONFLICTNAME",
	ConflictVersion: "CONFLICTVERSION",
	ObsoleteName:    "OBSOLETENAME",
	ProvideFlags:    "PROVIDEFLAGS",
	ProvideVersion:  "PROVIDEVERSION",
	ObsoleteFlags:   "OBSOLETEFLAGS",
	ObsoleteVersion: "OBSOLETEVERSION",
	DirIndexes:      "DIRINDEXES",
	BaseNames:       "BASENAMES",
	DirNames:        "DIRNAMES",
	FileColors:      "FILECOLORS",
}

var tagValues = func() map[string]Tag {
	m := make(map[string]Tag, len(tagNames))
	for t, n := range tagNames {
		m[n] = t
	}
	return m
}()

// String returns the tag's canonical name, or its decimal number when the
// tag has no name.
func (t Tag) String() string {
	if n, ok := tagNames[t]; ok {
		return n
	}
	return strconv.Itoa(int(t))
}

// Named reports whether t has an entry in the name table.
func (t Tag) Named() bool {
	_, ok := tagNames[t]
	return ok
}

// Value resolves a tag name to its number. Names are matched
// case-insensitively; decimal numbers are accepted as-is.
func Value(name string) (Tag, bool) {
	if name == "" {
		return 0, false
	}
	if t, ok := tagValues[strings.ToUpper(name)]; ok {
		return t, true
	}
	n, err := strconv.ParseInt(name, 10, 32)
	if err != nil || n < 0 {
		return 0, false
	}
	return Tag(n), true
}

// MustValue is Value for names known at compile time.
func MustValue(name string) Tag {
	t, ok := Value(name)
	if !ok {
		panic(fmt.Sprintf("tag: unknown tag name %q", name))
	}
	return t
}

// Names returns every named tag in ascending numeric order.
func Names() []Tag {
	tags := make([]Tag, 0, len(tagNames))
	for t := range tagNames {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}
