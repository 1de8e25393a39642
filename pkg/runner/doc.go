/*
Package runner implements the cooperative event loop in front of the POS engine.

Hardware and UI sources push into a Bridge, which keeps one unbounded mailbox per
source. A single Runner drains the bridge, so business submissions never overlap.
Reconfigure closes every mailbox and installs fresh ones; producers still holding a
closed mailbox see Publish return false and must fetch the new one.

# Usage

	r := runner.New(engine,
		runner.WithLogger(logger),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)
	go scanner.Feed(r.Bridge().Mailbox(runner.SourceScan))

	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
