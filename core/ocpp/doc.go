package ocpp

// Package ocpp builds the OCPP 1.6 CALL frames published by simulated charge
// points. A frame is the array [2, uniqueId, action, payload]. Frames can be
// published bare or wrapped in a single-key object named after the backend
// attribute that stores them.
