package graph

import (
	"strconv"
	"strings"
)

// defaultDeviceName is used when neither a type label nor a type name is
// available for a new device.
const defaultDeviceName = "New device"

// Separators of a connection ID. Device and port names may not contain
// either, otherwise two connections could derive the same ID.
const (
	portSeparator       = "::"
	connectionSeparator = " --> "
)

func reservedName(name string) bool {
	return strings.Contains(name, portSeparator) || strings.Contains(name, connectionSeparator)
}

// AllocateName returns base if it is not among existing, otherwise the
// first of "base 2", "base 3", ... that is free. It never fails.
func AllocateName(base string, existing []string) string {
	taken := make(map[string]struct{}, len(existing))
	for _, n := range existing {
		taken[n] = struct{}{}
	}
	return allocateName(base, func(n string) bool {
		_, ok := taken[n]
		return ok
	})
}

func allocateName(base string, taken func(string) bool) string {
	if !taken(base) {
		return base
	}
	for i := 2; ; i++ {
		candidate := base + " " + strconv.Itoa(i)
		if !taken(candidate) {
			return candidate
		}
	}
}
