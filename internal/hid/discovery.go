package hid

import (
	"fmt"
	"sort"

	"github.com/karalabe/hid"
)

// DeviceInfo describes a HID interface found on the system
type DeviceInfo struct {
	VendorID     uint16
	ProductID    uint16
	Path         string
	Manufacturer string
	Product      string
	SerialNumber string
	UsagePage    uint16
	Usage        uint16
}

// ID formats the vendor and product IDs as used in the config file
func (d DeviceInfo) ID() string {
	return fmt.Sprintf("0x%04X:0x%04X", d.VendorID, d.ProductID)
}

func fromInfo(d hid.DeviceInfo) DeviceInfo {
	return DeviceInfo{
		VendorID:     d.VendorID,
		ProductID:    d.ProductID,
		Path:         d.Path,
		Manufacturer: d.Manufacturer,
		Product:      d.Product,
		SerialNumber: d.Serial,
		UsagePage:    d.UsagePage,
		Usage:        d.Usage,
	}
}

// ListDevices returns every HID interface on the system
func ListDevices() ([]DeviceInfo, error) {
	if !hid.Supported() {
		return nil, fmt.Errorf("HID is not supported on this platform")
	}

	devices := hid.Enumerate(0, 0)
	result := make([]DeviceInfo, len(devices))
	for i, d := range devices {
		result[i] = fromInfo(d)
	}
	return result, nil
}

// Unique collapses interfaces of the same device, keeping the first of each
// vendor/product pair, sorted by ID
func Unique(devices []DeviceInfo) []DeviceInfo {
	seen := make(map[string]bool)
	var out []DeviceInfo
	for _, d := range devices {
		if seen[d.ID()] {
			continue
		}
		seen[d.ID()] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// FindDevice returns the first interface matching the IDs, or nil
func FindDevice(vendorID, productID uint16) (*DeviceInfo, error) {
	devices := hid.Enumerate(vendorID, productID)
	if len(devices) == 0 {
		return nil, nil
	}
	d := fromInfo(devices[0])
	return &d, nil
}
