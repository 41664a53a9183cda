// Package util holds helpers that don't belong to any other package
package util

import "os"

// Marker files left by docker and podman inside their containers
var containerMarkers = []string{"/.dockerenv", "/run/.containerenv"}

// InContainer reports whether the process runs inside a container
func InContainer() bool {
	return inContainer(containerMarkers)
}

func inContainer(markers []string) bool {
	for _, m := range markers {
		if _, err := os.Stat(m); err == nil {
			return true
		}
	}

	return false
}
