// Package parser provides an error-tolerant parser for Puppet manifests.
//
// # Overview
//
// The parser turns a token sequence into a syntax tree that editor tooling
// queries by offset and node kind. It never gives up on malformed input:
// problems become Error nodes and parsing resumes at the next boundary.
//
// # Architecture
//
//	┌─────────────┐     ┌─────────────┐     ┌─────────────┐
//	│   Input     │────▶│   Lexer     │────▶│   Cursor    │
//	│  (bytes)    │     │  (tokens)   │     │ (mark/rewind│
//	└─────────────┘     └─────────────┘     └──────┬──────┘
//	                                               │
//	                           ┌───────────────────▼───┐
//	                           │  Parser engine        │
//	                           │  class/define/node    │
//	                           │  blob scanner         │
//	                           │  type references      │
//	                           └───────────┬───────────┘
//	                                       ▼
//	                                ┌─────────────┐
//	                                │ Tree (arena)│
//	                                └─────────────┘
//
// # Usage
//
//	root := parser.ParseManifest(r, parser.WithFile("init.pp")).Finish()
//	for _, cls := range root.CollectByKind(parser.KindClass, true) {
//	    fmt.Println(cls.Name())
//	}
//
// # Tree
//
// Nodes live in a Tree and are addressed through Node handles. Every node
// has one parent and ordered children. Token leaves, numbers, type
// references and blobs carry their own end offset; all other nodes end where
// their last child ends.
//
// Statements the parser has no specific shape for are collected in Blob
// nodes, which still expose the strings, variables, references, calls,
// conditionals and resources found inside them.
//
// # Type references
//
// Names such as Integer[0, 10], Array[String], Class['apache'] or
// File['/tmp/a'] are parsed against a per-type table of accepted parameter
// kinds. Nested parametric types like Array[Variant[String, Integer]] are
// reported as errors; Struct[...] is skipped without looking inside.
package parser
