// Package notifications delivers task milestones via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a no-op when notifications are disabled.
// Workflow code depends only on the Service interface.
package notifications
