// Package kinds adds typed, kind-specific views on top of the generic object
// stores: pod ownership, container names, events of an object, namespace
// names and list rows for the terminal explorer.
package kinds
