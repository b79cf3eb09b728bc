package godwit

type OptionFunc func(*Migrator) error
type ActionConfigurator func(a *Action)

// Action collects the per-run adjustments of a single operation.
type Action struct {
	steps int
}

// WithSteps caps how many change-scripts a single run may pick up.
func WithSteps(steps int) ActionConfigurator {
	return func(a *Action) {
		a.steps = steps
	}
}

// CreateConfigurators assembles action configurators from raw flag
// values, skipping the ones left at their zero value.
func CreateConfigurators(steps int) []ActionConfigurator {
	var configurators []ActionConfigurator
	if steps > 0 {
		configurators = append(configurators, WithSteps(steps))
	}

	return configurators
}
