/*
Package ports defines the driven ports (interfaces) of the POS interaction engine.

These interfaces decouple the core logic from the external collaborators it consumes,
so the engine can run against a remote domain engine, real devices, or in-memory doubles.

# Key Interfaces

  - DomainEngine: handles canonical business events and returns processing results.
  - Classifier: maps raw data-entry text to a tentative canonical event.
  - Scanner, Notifier, Navigator, ReceiptDisplay: device and screen side effects.
  - SettingsStore: persists the terminal's transaction number.
  - DistributedLocker: coordinates settings writes across replicas.
*/
package ports
