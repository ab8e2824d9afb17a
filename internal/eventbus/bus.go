package eventbus

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Rorical/RoriAgent/internal/models"
)

var (
	ErrCircuitOpen = errors.New("circuit breaker is open")
	ErrChannelFull = errors.New("channel is full")
	ErrClosed      = errors.New("event bus is closed")
)

// UIEvent represents events sent from UI to Core
type UIEvent interface {
	UIEvent()
}

// CoreEvent represents events sent from Core to UI
type CoreEvent interface {
	CoreEvent()
}

// SendMessageEvent - UI submits one user utterance
type SendMessageEvent struct {
	Message string
}

func (e SendMessageEvent) UIEvent() {}

// ResetEvent - UI asks to clear the conversation
type ResetEvent struct{}

func (e ResetEvent) UIEvent() {}

// StateUpdateEvent - Core pushes new transcript entries and status to UI
type StateUpdateEvent struct {
	Entries      []models.Entry // only entries the UI has not seen yet
	IsProcessing bool
	Error        error
}

func (e StateUpdateEvent) CoreEvent() {}

// ConfirmationRequestEvent - Core asks the user to approve an operation
type ConfirmationRequestEvent struct {
	ID        string
	Operation string
	Command   string
	Dangerous bool
}

func (e ConfirmationRequestEvent) CoreEvent() {}

// ConfirmationResponseEvent - UI answers a ConfirmationRequestEvent
type ConfirmationResponseEvent struct {
	ID       string // matches ConfirmationRequestEvent.ID
	Approved bool
}

func (e ConfirmationResponseEvent) UIEvent() {}

// EventBusError represents errors in event processing
type EventBusError struct {
	Operation string
	Err       error
	Timestamp time.Time
}

func (e EventBusError) Error() string {
	return e.Operation + ": " + e.Err.Error()
}

func (e EventBusError) Unwrap() error {
	return e.Err
}

// CircuitBreakerState represents the state of circuit breaker
type CircuitBreakerState int

const (
	CircuitClosed CircuitBreakerState = iota
	CircuitOpen
	CircuitHalfOpen
)

// CircuitBreaker stops non-blocking sends after repeated failures.
type CircuitBreaker struct {
	mu              sync.Mutex
	maxFailures     int
	resetTimeout    time.Duration
	failureCount    int
	lastFailureTime time.Time
	state           CircuitBreakerState
}

func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        CircuitClosed,
	}
}

func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == CircuitOpen && time.Since(cb.lastFailureTime) > cb.resetTimeout {
		cb.state = CircuitHalfOpen
	}
	return cb.state == CircuitOpen
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failureCount = 0
	cb.state = CircuitClosed
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failureCount++
	cb.lastFailureTime = time.Now()
	if cb.failureCount >= cb.maxFailures || cb.state == CircuitHalfOpen {
		cb.state = CircuitOpen
	}
}

func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// EventBus carries events between the TUI and the chat service.
type EventBus struct {
	uiToCore       chan UIEvent
	coreToUI       chan CoreEvent
	errorCallback  func(EventBusError)
	circuitBreaker *CircuitBreaker

	done      chan struct{}
	closeOnce sync.Once
}

func NewEventBus() *EventBus {
	return &EventBus{
		uiToCore:       make(chan UIEvent, 100),
		coreToUI:       make(chan CoreEvent, 100),
		circuitBreaker: NewCircuitBreaker(5, 30*time.Second),
		done:           make(chan struct{}),
	}
}

// SetErrorCallback must be called before the bus is used.
func (eb *EventBus) SetErrorCallback(callback func(EventBusError)) {
	eb.errorCallback = callback
}

func (eb *EventBus) reportError(operation string, err error) {
	eb.circuitBreaker.RecordFailure()
	if eb.errorCallback != nil {
		eb.errorCallback(EventBusError{Operation: operation, Err: err, Timestamp: time.Now()})
	}
}

// SendToCore never blocks; the UI loop must stay responsive.
func (eb *EventBus) SendToCore(event UIEvent) error {
	if eb.circuitBreaker.IsOpen() {
		eb.reportError("SendToCore", ErrCircuitOpen)
		return ErrCircuitOpen
	}

	select {
	case <-eb.done:
		return ErrClosed
	default:
	}

	select {
	case eb.uiToCore <- event:
		eb.circuitBreaker.RecordSuccess()
		return nil
	default:
		eb.reportError("SendToCore", ErrChannelFull)
		return ErrChannelFull
	}
}

// PublishToUI waits for room in the UI channel, so transcript updates are
// never dropped. It gives up when ctx ends or the bus closes.
func (eb *EventBus) PublishToUI(ctx context.Context, event CoreEvent) error {
	select {
	case eb.coreToUI <- event:
		return nil
	case <-eb.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (eb *EventBus) UIToCore() <-chan UIEvent {
	return eb.uiToCore
}

func (eb *EventBus) CoreToUI() <-chan CoreEvent {
	return eb.coreToUI
}

// Done is closed by Close.
func (eb *EventBus) Done() <-chan struct{} {
	return eb.done
}

func (eb *EventBus) GetCircuitBreakerState() CircuitBreakerState {
	return eb.circuitBreaker.State()
}

// Close releases every blocked sender and receiver. The data channels stay
// open so a late send cannot panic.
func (eb *EventBus) Close() {
	eb.closeOnce.Do(func() { close(eb.done) })
}
