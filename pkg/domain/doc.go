/*
Package domain contains the data model of the POS interaction layer.

It defines the closed enumerations the engine reasons about and the values exchanged
with the external domain engine. This package is kept pure and free of external
dependencies like I/O or persistence.

# Key Entities

  - LogicalState / Mode: the transaction lifecycle phase and the UI flow layered on it.
  - InteractionState: the (logical state, mode) pair plus UI flags, owned by the state machine.
  - BusinessContext: the most recent result from the domain engine, owned by the executor.
  - RawInputEvent: the closed union of scanner, keyboard, key listener, payment and UI inputs.
  - CanonicalEvent: a named business operation with ordered inputs.
  - Outcome: what disambiguation decided (submit, local action or reject).
*/
package domain
