// Package toc builds nested table of contents for a tree of Markdown
// documents.
//
// Every directory which (recursively) holds at least one document produces
// an entry, documents produce entries nested under their directory. Entries
// are ordered by (order, rendered line) and flattened into indented Markdown
// list lines which are then spliced between two markers of a target
// document.
//
// Documents influence their entries with HTML comments placed at the very
// beginning of the file (optionally after front matter block):
//
//	<!-- toc-name: Getting started; toc-order: 1; -->
//	<!-- toc-ignore -->
package toc
