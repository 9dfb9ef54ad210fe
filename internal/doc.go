// Package internal contains the implementation packages of patterndoc.
//
// # Package Organization
//
//   - scanner: discovery of pattern definition files and XML parsing into types
//   - types: the pattern data model and the directory tree of patterns
//   - registry: qualified pattern names and duplicate detection
//   - model: per-pattern role split and trigger group resolution
//   - trigger: enumeration of trigger group configurations
//   - renderer: page documents, HTML output and Graphviz graphs
//   - graphviz: probing for and running the layout tool
//   - build: the generation pipeline, index page and metrics
//   - validation: name, path, origin and link checks
//   - watcher: debounced file system notifications
//   - server: the preview server with live reload
//   - config, logging, errors, version: ambient support
//
// # Data Flow
//
// The scanner produces a tree of patterns. The build generator walks that
// tree, asks model and trigger for the derived structure of each pattern,
// lets renderer turn it into a page and a graph, and writes the index last.
// watch and serve repeat the whole run whenever the watcher reports a
// change.
package internal
