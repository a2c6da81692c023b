package state

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"richdoc/config"
)

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		start: time.Now(),
	}
}

// prepareSchema builds schema and conversion rules from document
// configuration, only once.
func (e *LocalEnv) prepareSchema() error {
	if e.Schema != nil {
		return nil
	}
	if e.Cfg == nil {
		cfg, err := config.LoadConfiguration("")
		if err != nil {
			return fmt.Errorf("unable to load default configuration: %w", err)
		}
		e.Cfg = cfg
	}
	def, err := e.Cfg.Document.Definition()
	if err != nil {
		return err
	}
	log := e.Log
	if log == nil {
		log = zap.NewNop()
	}
	e.Schema, e.Conversion = def.Build(log)
	log.Debug("Schema prepared", zap.Int("rules", len(def.Rules)), zap.Int("conversions", len(def.Conversions)))
	return nil
}
