package pos_test

import (
	"context"
	"fmt"
	"log"

	pos "github.com/jas0n325/captone-ui-sub006"
	"github.com/jas0n325/captone-ui-sub006/pkg/adapters/classifier"
	"github.com/jas0n325/captone-ui-sub006/pkg/adapters/memory"
	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
)

// ExampleNew_memory drives a terminal against the scripted in-memory domain engine.
func ExampleNew_memory() {
	cls, err := classifier.New(classifier.DefaultRules())
	if err != nil {
		log.Fatal(err)
	}

	engine, err := pos.New(memory.NewDomainEngine(memory.DefaultScript()), pos.WithClassifier(cls))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if err := engine.Start(ctx); err != nil {
		log.Fatal(err)
	}

	// A barcode read becomes an Item event.
	out, err := engine.HandleInput(ctx, domain.ScanData{Data: "0012345678905"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(out.Event.EventType)

	for _, line := range engine.BusinessContext().ReceiptLines {
		fmt.Printf("%d %s %s\n", line.LineNumber, line.Description, line.Amount)
	}
	fmt.Println(engine.InteractionState().LogicalState)

	// Output:
	// Item
	// 1 Coffee beans 1kg 18.99
	// InMerchandiseTransaction
}
