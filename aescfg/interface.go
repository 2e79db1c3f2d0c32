package aescfg

import "fmt"

// Validator is implemented by every sub configuration of the daemon.
type Validator interface {
	// Validate returns an error if the configuration cannot be used.
	Validate() error
}

// Namespaced is implemented by sub configurations that are parsed under a
// flag namespace.
type Namespaced interface {
	Namespace() string
}

// Validate runs the validators in order and stops at the first failure. Errors
// of namespaced configurations are prefixed with their namespace so the
// offending option can be found on the command line or in the config file.
func Validate(validators ...Validator) error {
	for _, validator := range validators {
		err := validator.Validate()
		if err == nil {
			continue
		}

		if ns, ok := validator.(Namespaced); ok {
			return fmt.Errorf("%s: %w", ns.Namespace(), err)
		}

		return err
	}

	return nil
}
