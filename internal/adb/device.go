package adb

// DeviceType classifies how a device is visible to adb.
type DeviceType string

const (
	USB         DeviceType = "USB"
	Remote      DeviceType = "REMOTE"
	Offline     DeviceType = "OFFLINE"
	SavedRemote DeviceType = "SAVED_REMOTE"
)

// DefaultPort is the TCP port adb uses for wireless connections.
const DefaultPort = 5555

// Device represents one adb-visible endpoint, or a saved WiFi connection.
type Device struct {
	Name     string     `json:"name"`
	SerialID string     `json:"serialID"`
	RemoteIP string     `json:"remoteIP"`
	Type     DeviceType `json:"type"`

	// State is the raw adb status token ("device", "offline", "unauthorized").
	State string `json:"-"`

	// target is the adb -s argument the device was listed under.
	target string
}

// Target returns the identifier to pass to adb -s for this device.
func (d Device) Target() string {
	if d.target != "" {
		return d.target
	}
	if d.SerialID != "" {
		return d.SerialID
	}
	return d.RemoteIP
}

// Saved returns a SAVED_REMOTE copy carrying only name, remote IP and serial.
func (d Device) Saved() Device {
	return Device{
		Name:     d.Name,
		RemoteIP: d.RemoteIP,
		SerialID: d.SerialID,
		Type:     SavedRemote,
	}
}

// IsOnline returns true if the device is in "device" state (ready).
func (d Device) IsOnline() bool {
	return d.State == "device"
}

// Label returns a display string for the device.
func (d Device) Label() string {
	switch {
	case d.Name != "":
		return d.Name
	case d.SerialID != "":
		return d.SerialID
	default:
		return d.RemoteIP
	}
}
