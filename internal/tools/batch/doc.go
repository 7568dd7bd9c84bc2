// Package batch provides helpers for tools that act on several items at once.
//
// This package includes helpers for:
//   - Parsing parameters that accept both single values and arrays
//   - Formatting per-item results in a consistent JSON structure
//   - Converting Drive share results into per-recipient results
package batch
