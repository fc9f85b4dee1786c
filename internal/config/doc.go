// Package config implements the configuration store for the Visitor Flow Container.
//
// Configuration starts from a baseline (LoadBaseline), is merged with an optional
// YAML file and finally with VFC_* environment overrides before validation.
//
// The estimator epoch and bandwidth are process-wide constants: they are read once
// at startup and must not change while the event log holds data.
package config
