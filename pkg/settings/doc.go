/*
Package settings persists per-terminal settings on top of a ports.SettingsStore.

The Manager serializes writes per terminal with reference-counted in-process locks and,
when a DistributedLocker is configured, a lock shared by every replica. Its main job is
propagating the transaction number reported by the domain engine so the next session on
the same terminal continues the sequence.
*/
package settings
