// Package viewkit renders named templates through a pluggable engine. The
// root package wires a config.Config into a view.Factory; the pieces live in
// pkg/view (the view object), pkg/resolver (name to file lookup), pkg/engine
// (engine contract and registry) and its pongo and htmltmpl drivers.
package viewkit
