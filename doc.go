/*
Package pos is the interaction core of a point-of-sale terminal.

It sits between the terminal's input devices and an external domain engine. Raw
inputs (scans, keyed text, payment callbacks, UI events) are disambiguated in the
current local context into a canonical business event, a local action or a
rejection. Canonical events are submitted to the domain engine, and the result
drives the interaction mode state machine that screens render.

# Usage

	eng, err := pos.New(domainEngine,
		pos.WithConfig(cfg),
		pos.WithClassifier(rules),
		pos.WithSettings(settings.NewManager(store)),
		pos.WithLogger(logger),
	)
	if err != nil {
		log.Fatal(err)
	}
	if err := eng.Start(ctx); err != nil {
		log.Printf("terminal entered fatal mode: %v", err)
	}

	outcome, err := eng.HandleInput(ctx, domain.ScanData{Data: "0012345678905"})

The engine serializes HandleInput and Submit, so at most one canonical event is
in flight. Hosts with push-style devices usually drive it through pkg/runner.
*/
package pos
