package memory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
)

// Event types understood by the scripted engine besides the canonical ones.
const (
	EventStatus          = "Status"
	EventVoidTransaction = "VoidTransaction"
	EventTotal           = "Total"
)

// Product is a catalog entry. Price is in minor units.
type Product struct {
	Key         string `yaml:"key" json:"key"`
	Description string `yaml:"description" json:"description"`
	Price       int64  `yaml:"price" json:"price"`
}

// Customer is a member the engine can assign.
type Customer struct {
	Number string `yaml:"number" json:"number"`
	Name   string `yaml:"name" json:"name"`
	Email  string `yaml:"email" json:"email"`
}

// Script seeds the scripted engine.
type Script struct {
	Products          []Product  `yaml:"products"`
	Customers         []Customer `yaml:"customers"`
	TransactionNumber int64      `yaml:"transaction_number"`
}

// LoadScript reads a YAML script from path.
func LoadScript(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("failed to read script: %w", err)
	}
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("failed to parse script %s: %w", path, err)
	}
	return s, nil
}

// DefaultScript is a small catalog used when no script is configured.
func DefaultScript() Script {
	return Script{
		Products: []Product{
			{Key: "0012345678905", Description: "Coffee beans 1kg", Price: 1899},
			{Key: "0098765432109", Description: "Ceramic mug", Price: 799},
			{Key: "0055555555555", Description: "Gift card", Price: 2500},
		},
		Customers: []Customer{
			{Number: "1001", Name: "Ada Park", Email: "ada@example.com"},
		},
	}
}

// DomainEngine is a scripted, in-memory stand-in for the business engine.
// It simulates one merchandise transaction at a time.
type DomainEngine struct {
	mu sync.Mutex

	products  map[string]Product
	customers []Customer

	state    domain.LogicalState
	number   int64
	lines    []domain.ReceiptLine
	prices   []int64
	customer string
	last     domain.TransactionInfo

	failures map[string][]error
}

// NewDomainEngine creates an engine seeded with script.
func NewDomainEngine(script Script) *DomainEngine {
	e := &DomainEngine{
		products:  make(map[string]Product, len(script.Products)),
		customers: append([]Customer(nil), script.Customers...),
		state:     domain.LogicalStateNotInTransaction,
		number:    script.TransactionNumber,
		failures:  make(map[string][]error),
	}
	for _, p := range script.Products {
		e.products[p.Key] = p
	}
	return e
}

// FailNext makes the next Handle of eventType return err.
func (e *DomainEngine) FailNext(eventType string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures[eventType] = append(e.failures[eventType], err)
}

// Handle implements ports.DomainEngine.
func (e *DomainEngine) Handle(ctx context.Context, event domain.CanonicalEvent) (*domain.ProcessingResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if queued := e.failures[event.EventType]; len(queued) > 0 {
		e.failures[event.EventType] = queued[1:]
		return nil, queued[0]
	}

	var display map[string]any
	closed := false
	switch event.EventType {
	case EventStatus:
	case domain.EventItem:
		if err := e.addItem(event); err != nil {
			return nil, err
		}
	case domain.EventVoidLineItem:
		if err := e.voidLine(event); err != nil {
			return nil, err
		}
	case domain.EventAssignCustomer:
		if err := e.assignCustomer(event); err != nil {
			return nil, err
		}
	case EventTotal:
		if e.state != domain.LogicalStateInMerchandiseTransaction {
			return nil, notAllowed(event.EventType)
		}
		e.state = domain.LogicalStateInMerchandiseTransactionWaitingToClose
	case domain.EventApplyTender, domain.EventTenderAuthorizationStatus:
		if !e.open() {
			return nil, notAllowed(event.EventType)
		}
		if event.EventType == domain.EventTenderAuthorizationStatus && !approved(event) {
			return nil, &domain.BusinessError{
				Code:    "TENDER_DECLINED",
				Message: &domain.Message{Key: "tender.declined", Default: "The payment was declined"},
			}
		}
		e.close("Sale")
		closed = true
	case EventVoidTransaction:
		if !e.open() {
			return nil, notAllowed(event.EventType)
		}
		e.close("Void")
		closed = true
	case domain.EventProductSearch:
		display = e.searchProducts(event)
	case domain.EventCustomerSearch:
		display = e.searchCustomers(event)
	case domain.EventOrderLookup, domain.EventSearchHistoricalTransactions, domain.EventSearchPostVoidableTransaction:
		display = map[string]any{"results": e.history()}
	default:
		return nil, &domain.BusinessError{
			Code:    "UNSUPPORTED_EVENT",
			Message: &domain.Message{Key: "error.unsupportedEvent", Params: map[string]any{"eventType": event.EventType}},
		}
	}

	return e.result(closed, display), nil
}

func (e *DomainEngine) open() bool {
	switch e.state {
	case domain.LogicalStateInMerchandiseTransaction, domain.LogicalStateInMerchandiseTransactionWaitingToClose:
		return true
	}
	return false
}

func (e *DomainEngine) addItem(event domain.CanonicalEvent) error {
	key := inputString(event, domain.KeyItemKey)
	p, ok := e.products[key]
	if !ok {
		return &domain.QualificationError{
			Reason:        domain.Message{Key: "item.notFound", Params: map[string]any{"itemKey": key}, Default: "Item not found"},
			CollectedData: map[string]any{domain.KeyItemKey: key},
		}
	}
	if e.state == domain.LogicalStateInMerchandiseTransactionWaitingToClose {
		return notAllowed(event.EventType)
	}
	if !e.open() {
		e.number++
		e.lines = nil
		e.prices = nil
		e.customer = ""
		e.state = domain.LogicalStateInMerchandiseTransaction
	}
	e.lines = append(e.lines, domain.ReceiptLine{
		LineNumber:  len(e.lines) + 1,
		Description: p.Description,
		Quantity:    1,
		Amount:      formatAmount(p.Price),
	})
	e.prices = append(e.prices, p.Price)
	return nil
}

func (e *DomainEngine) voidLine(event domain.CanonicalEvent) error {
	n, err := strconv.Atoi(inputString(event, domain.KeyLineNumber))
	if err != nil || n < 1 || n > len(e.lines) {
		return &domain.QualificationError{Reason: domain.Message{Key: "line.notFound", Default: "Line not found"}}
	}
	e.lines[n-1].Voided = true
	return nil
}

func (e *DomainEngine) assignCustomer(event domain.CanonicalEvent) error {
	number := inputString(event, domain.KeyCustomerNumber)
	for _, c := range e.customers {
		if c.Number == number {
			e.customer = c.Number
			return nil
		}
	}
	return &domain.BusinessError{
		Code:    "CUSTOMER_NOT_FOUND",
		Message: &domain.Message{Key: "customer.notFound", Default: "Customer not found"},
	}
}

func (e *DomainEngine) close(kind string) {
	var total int64
	for i, l := range e.lines {
		if !l.Voided {
			total += e.prices[i]
		}
	}
	e.last = domain.TransactionInfo{
		"transactionNumber": e.number,
		"type":              kind,
		"lines":             len(e.lines),
		"total":             formatAmount(total),
	}
	e.state = domain.LogicalStateNotInTransaction
}

func (e *DomainEngine) searchProducts(event domain.CanonicalEvent) map[string]any {
	term := strings.ToLower(inputString(event, domain.KeySearchTerm))
	var matches []Product
	for _, p := range e.products {
		if strings.Contains(strings.ToLower(p.Description), term) || p.Key == term {
			matches = append(matches, p)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Key < matches[j].Key })
	return map[string]any{"results": matches}
}

func (e *DomainEngine) searchCustomers(event domain.CanonicalEvent) map[string]any {
	email := inputString(event, domain.KeyEmailAddress)
	alt := inputString(event, domain.KeyAlternateKey)
	var matches []Customer
	for _, c := range e.customers {
		if (email != "" && strings.EqualFold(c.Email, email)) || (alt != "" && c.Number == alt) {
			matches = append(matches, c)
		}
	}
	return map[string]any{"results": matches}
}

func (e *DomainEngine) history() []domain.TransactionInfo {
	if e.last == nil {
		return nil
	}
	return []domain.TransactionInfo{e.last}
}

func (e *DomainEngine) result(closed bool, display map[string]any) *domain.ProcessingResult {
	values := map[string]any{
		domain.ValueTransactionOpen:   e.open(),
		domain.ValueTransactionNumber: e.number,
	}
	if closed {
		values[domain.ValueTransactionClosed] = true
	}
	if e.state == domain.LogicalStateInMerchandiseTransactionWaitingToClose {
		values[domain.ValueTransactionWaitingToClose] = true
	}
	if e.customer != "" && e.open() {
		values[domain.ValueTransactionCustomer] = e.customer
	}

	res := &domain.ProcessingResult{
		StateValues:     values,
		LogicalState:    e.state,
		PermittedEvents: permittedEvents(e.state),
		DisplayInfo:     display,
	}
	if e.open() {
		res.ReceiptLines = append([]domain.ReceiptLine(nil), e.lines...)
	}
	if e.last != nil {
		res.LastTransactionInfo = e.last
		res.LastPrintableTransactionInfo = e.last
	}
	return res
}

func permittedEvents(state domain.LogicalState) []string {
	switch state {
	case domain.LogicalStateInMerchandiseTransaction:
		return []string{domain.EventItem, domain.EventVoidLineItem, domain.EventAssignCustomer, EventTotal, EventVoidTransaction, domain.EventProductSearch}
	case domain.LogicalStateInMerchandiseTransactionWaitingToClose:
		return []string{domain.EventApplyTender, domain.EventTenderAuthorizationStatus, EventVoidTransaction}
	default:
		return []string{domain.EventItem, domain.EventAssignCustomer, domain.EventProductSearch, domain.EventCustomerSearch, domain.EventSearchHistoricalTransactions}
	}
}

func notAllowed(eventType string) error {
	return &domain.QualificationError{
		Reason: domain.Message{Key: "event.notAllowed", Params: map[string]any{"eventType": eventType}, Default: "Not allowed now"},
	}
}

func approved(event domain.CanonicalEvent) bool {
	in, ok := event.Input(domain.KeyAuthorizationResponse)
	if !ok {
		return false
	}
	resp, ok := in.Value.(map[string]any)
	if !ok {
		return false
	}
	v, _ := resp["approved"].(bool)
	return v
}

func inputString(event domain.CanonicalEvent, key string) string {
	in, ok := event.Input(key)
	if !ok || in.Value == nil {
		return ""
	}
	return fmt.Sprint(in.Value)
}

func formatAmount(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}
