package channel

import "errors"

// ErrConnection is returned when a channel cannot be established.
var ErrConnection = errors.New("channel connection failed")

// ErrPublish is returned when a single publish attempt fails.
var ErrPublish = errors.New("publish failed")
