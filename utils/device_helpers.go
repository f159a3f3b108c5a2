// Package utils holds shared helpers for device-backed tests and
// examples.
package utils

import (
	"fmt"

	"github.com/notargets/gocca"
)

// CreateTestDevice creates a device for tests, preferring parallel
// backends and falling back to Serial, which every OCCA install has.
func CreateTestDevice() *gocca.OCCADevice {
	backends := []string{
		`{"mode": "OpenMP"}`,
		`{"mode": "CUDA", "device_id": 0}`,
		`{"mode": "Serial"}`,
	}

	for _, props := range backends {
		device, err := gocca.NewDevice(props)
		if err == nil {
			fmt.Printf("Created %s Device\n", device.Mode())
			return device
		}
	}

	panic("Failed to create any Device")
}
