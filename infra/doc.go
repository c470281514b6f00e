// Package infra contains technical adapters such as the MQTT channel,
// metrics sinks and the Sentry reporter. These packages should depend only
// on the interfaces defined in the core packages.
package infra
