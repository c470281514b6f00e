package model

// Identity is the immutable identity of one simulated charge point. Tag is
// used both as the OCPP idTag and as the publish-channel identity.
type Identity struct {
	Tag        string
	Credential string
}

// Device is one entry of the device directory.
type Device struct {
	Name       string `json:"name" yaml:"name"`
	ID         string `json:"id,omitempty" yaml:"id,omitempty"`
	Template   string `json:"-" yaml:"-"`
	Credential string `json:"credential,omitempty" yaml:"credential,omitempty"`
}

// Key returns the backend identifier of the device, falling back to its name.
func (d Device) Key() string {
	if d.ID != "" {
		return d.ID
	}
	return d.Name
}

// Identity derives the charge point identity of the device.
func (d Device) Identity() Identity {
	return Identity{Tag: d.Key(), Credential: d.Credential}
}
