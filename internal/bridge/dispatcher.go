package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/tempoview/tempoview/pkg/logger"
	"github.com/tempoview/tempoview/pkg/metrics"
)

var (
	// ErrNilHandler signals an attempt to register a nil handler.
	ErrNilHandler = errors.New("bridge: nil handler")
	// ErrEmptyCommand indicates a registration with no command name.
	ErrEmptyCommand = errors.New("bridge: command name is required")
)

// HandlerFunc processes a single bridge command.
type HandlerFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Dispatcher routes commands to registered handlers. It implements Invoker
// and is safe for concurrent use.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewDispatcher constructs an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]HandlerFunc)}
}

// Register binds a handler to a command name, replacing any previous binding.
func (d *Dispatcher) Register(command string, handler HandlerFunc) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return ErrEmptyCommand
	}
	if handler == nil {
		return ErrNilHandler
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[command] = handler
	return nil
}

// RegisterAll binds every handler in the map, aggregating registration errors.
func (d *Dispatcher) RegisterAll(handlers map[string]HandlerFunc) error {
	var err error
	for command, handler := range handlers {
		err = multierr.Append(err, d.Register(command, handler))
	}
	return err
}

// Commands returns the registered command names.
func (d *Dispatcher) Commands() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	return names
}

// Invoke encodes args, dispatches to the matching handler, and encodes the
// handler result. Handler panics are converted into errors.
func (d *Dispatcher) Invoke(ctx context.Context, command string, args any) (result json.RawMessage, err error) {
	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		metrics.BridgeInvocations.WithLabelValues(command, outcome).Inc()
		metrics.BridgeLatency.WithLabelValues(command).Observe(time.Since(start).Seconds())
	}()

	d.mu.RLock()
	handler, ok := d.handlers[strings.TrimSpace(command)]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("bridge: unknown command %q", command)
	}

	encoded, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("bridge: encode args for %s: %w", command, err)
	}

	defer func() {
		if r := recover(); r != nil {
			logger.WithModule("bridge").Error("handler panic",
				zap.String("command", command),
				zap.Any("panic", r),
			)
			result = nil
			err = fmt.Errorf("bridge: %s handler panic: %v", command, r)
		}
	}()

	out, err := handler(ctx, encoded)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("bridge: encode result for %s: %w", command, err)
	}
	return payload, nil
}
