package models

import (
	"strconv"
	"strings"
)

// NormalizeFramework maps a framework moniker to its short folder name.
//
//	.NETCoreApp,Version=v6.0     -> net6.0
//	.NETCoreApp,Version=v3.1     -> netcoreapp3.1
//	.NETFramework,Version=v4.7.2 -> net472
//	.NETStandard,Version=v2.0    -> netstandard2.0
//
// Names that are already short are lower-cased and returned as is.
func NormalizeFramework(name string) string {
	name = strings.TrimSpace(name)
	identifier, rest, found := strings.Cut(name, ",")
	if !found {
		return strings.ToLower(name)
	}

	version := ""
	for _, part := range strings.Split(rest, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && strings.EqualFold(key, "Version") {
			version = strings.TrimPrefix(strings.TrimPrefix(value, "v"), "V")
		}
	}

	switch strings.ToLower(identifier) {
	case ".netcoreapp":
		if major(version) >= 5 {
			return "net" + version
		}
		return "netcoreapp" + version
	case ".netframework":
		return "net" + strings.ReplaceAll(version, ".", "")
	case ".netstandard":
		return "netstandard" + version
	default:
		return strings.ToLower(strings.TrimPrefix(identifier, ".")) + version
	}
}

func major(version string) int {
	head, _, _ := strings.Cut(version, ".")
	n, err := strconv.Atoi(head)
	if err != nil {
		return 0
	}
	return n
}
