// Package protocol owns Mikey's protocol catalog. It defines the Protocol
// document model, the Store interface (persistence), and the Registry, which
// answers lookup, listing, search and situation-matching queries over a Store.
package protocol
