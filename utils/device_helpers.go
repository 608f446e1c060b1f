package utils

import (
	"errors"
	"fmt"

	"github.com/notargets/gocca"
)

// Modes lists the OCCA property strings tried by CreateTestDevice, parallel
// backends first
var Modes = []string{
	`{"mode": "OpenMP"}`,
	`{"mode": "CUDA", "device_id": 0}`,
	`{"mode": "Serial"}`,
}

// OpenDevice opens an OCCA device by mode name ("OpenMP", "CUDA", "Serial")
// or by a raw JSON property string
func OpenDevice(mode string) (*gocca.OCCADevice, error) {
	props := mode
	if len(mode) == 0 || mode[0] != '{' {
		props = fmt.Sprintf(`{"mode": %q}`, mode)
		if mode == "CUDA" {
			props = `{"mode": "CUDA", "device_id": 0}`
		}
	}
	device, err := gocca.NewDevice(props)
	if err != nil {
		return nil, fmt.Errorf("open OCCA device %s: %w", props, err)
	}
	return device, nil
}

// OpenAny opens the first available mode of Modes
func OpenAny() (*gocca.OCCADevice, error) {
	var errs []error
	for _, props := range Modes {
		device, err := OpenDevice(props)
		if err == nil {
			return device, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

// CreateTestDevice creates a Device for testing, preferring parallel backends
func CreateTestDevice() *gocca.OCCADevice {
	device, err := OpenAny()
	if err != nil {
		panic(fmt.Sprintf("Failed to create any Device: %v", err))
	}
	fmt.Printf("Created %s Device\n", device.Mode())
	return device
}
