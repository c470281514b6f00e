package simulator

import "errors"

// ErrConfiguration is returned before any network activity when the sweep
// cannot run with the given devices and parameters.
var ErrConfiguration = errors.New("invalid simulation configuration")
