// Package dispatch routes execute requests to the pooled connection of the worker's slot.
package dispatch
