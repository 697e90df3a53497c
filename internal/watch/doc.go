// Package watch implements the full-screen live readings view for
// ecomax-ctl.
//
// The view refreshes controller state on a fixed interval, shows the plant
// and thermostat readings in registry order, and keeps the last good data
// on screen when a refresh fails, marking it with the time of the last
// successful update. Keys: r forces a refresh, q quits.
package watch
