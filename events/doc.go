// Package events carries agent activity to observers. It wraps the provider
// package's streaming events with sender tracking and a JSON codec so events
// can travel over a broker, and defines the Hook interface observers
// implement.
package events
