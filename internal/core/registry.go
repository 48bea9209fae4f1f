package core

import (
	"fmt"
	"sync"
	"time"
)

// DetectInput is the shared input handed to every detector. Profiles are
// computed once and reused so detectors avoid redundant scans.
type DetectInput struct {
	Rows     []Row
	Profiles Profiles
	Now      time.Time
}

// DetectorFunc inspects a dataset and returns unscored issue candidates.
// Detectors must not mutate their input and must not fail on malformed data.
type DetectorFunc func(in DetectInput) []Issue

// DetectorDefinition is a registered detector.
type DetectorDefinition struct {
	Name   string
	Detect DetectorFunc
	order  int
}

var (
	detectors   = make(map[string]DetectorDefinition)
	detectorsMu sync.RWMutex
)

// RegisterDetector adds a detector to the registry.
// Panics if a detector with the same name is already registered.
func RegisterDetector(name string, fn DetectorFunc) {
	detectorsMu.Lock()
	defer detectorsMu.Unlock()

	if _, exists := detectors[name]; exists {
		panic(fmt.Sprintf("detector already registered: %s", name))
	}

	detectors[name] = DetectorDefinition{Name: name, Detect: fn, order: len(detectors)}
}

// GetDetector returns a detector by name.
// Returns false if not found.
func GetDetector(name string) (DetectorDefinition, bool) {
	detectorsMu.RLock()
	defer detectorsMu.RUnlock()

	def, ok := detectors[name]
	return def, ok
}

// Detectors returns all registered detectors in registration order.
func Detectors() []DetectorDefinition {
	detectorsMu.RLock()
	defer detectorsMu.RUnlock()

	result := make([]DetectorDefinition, len(detectors))
	for _, def := range detectors {
		result[def.order] = def
	}
	return result
}

// DetectorCount returns the number of registered detectors.
func DetectorCount() int {
	detectorsMu.RLock()
	defer detectorsMu.RUnlock()
	return len(detectors)
}
