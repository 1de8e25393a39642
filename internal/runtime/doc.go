// Package runtime hosts the interaction core: the mode state machine, the
// local-context projection, input disambiguation and the business operation executor.
package runtime
