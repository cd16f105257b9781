// Package scenario executes scenario files against a record store.
//
// This package is internal to recordstore and backs the `recordstore run`
// command. A scenario (see package config) is replayed step by step
// against a map-backed [recordstore.Store], and every listener call is
// written to an [io.Writer] as one JSON object per line:
//
//	{"step":0,"kind":"notify","listener":"view","field":"name","value":"John","catch_up":true}
//	{"step":1,"kind":"notify","listener":"view","field":"name","value":"Joe"}
//	{"step":3,"kind":"get","field":"age","value":42}
//
// The main components are:
//
//   - [Run]: executes a scenario and returns a [Report]
//   - [Event]: one line of the event log
package scenario
