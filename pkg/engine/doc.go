// Package engine defines the template engine contract views render through,
// the directory configuration engines are constructed with, and a registry of
// named engine drivers. Concrete drivers live in sub-packages (pongo,
// htmltmpl) so callers only pay for the engines they import.
package engine
