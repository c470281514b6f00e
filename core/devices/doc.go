// Package devices reads and writes the device directory: charge points
// grouped by backend template, kept in document order.
package devices
