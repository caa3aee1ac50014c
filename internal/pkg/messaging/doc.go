// Package messaging publishes events to a message broker picked by driver
// name. Business code depends only on Publisher, so the broker can change
// through configuration.
package messaging
