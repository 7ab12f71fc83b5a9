package actuator

import (
	"context"
	"sort"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/superstructure/logging"
	"go.viam.com/superstructure/utils"
)

// Constructor builds an actuator of some model from its raw attributes.
type Constructor func(
	ctx context.Context,
	name string,
	attributes map[string]interface{},
	clk clock.Clock,
	logger logging.Logger,
) (Actuator, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Constructor{}
)

// RegisterModel registers a constructor for model. Registering the same model twice panics.
func RegisterModel(model string, constructor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[model]; ok {
		panic(errors.Errorf("trying to register two actuator models with the same name: %q", model))
	}
	if constructor == nil {
		panic(errors.Errorf("cannot register a nil constructor for actuator model %q", model))
	}
	registry[model] = constructor
}

// Models returns the registered model names, sorted.
func Models() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	models := make([]string, 0, len(registry))
	for m := range registry {
		models = append(models, m)
	}
	sort.Strings(models)
	return models
}

// New constructs an actuator of the given model.
func New(
	ctx context.Context,
	model, name string,
	attributes map[string]interface{},
	clk clock.Clock,
	logger logging.Logger,
) (Actuator, error) {
	registryMu.RLock()
	constructor, ok := registry[model]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(utils.NewUnknownModelError("actuator", model), "registered models are %v", Models())
	}
	act, err := constructor(ctx, name, attributes, clk, logger)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot build actuator %q of model %q", name, model)
	}
	return act, nil
}
