package config

import "github.com/pkg/errors"

func errInvalidWhichPlanner(v interface{}) error {
	return errors.Errorf("config: invalid whichPlanner value %v", v)
}
