// Package pipeline assembles every configured source concurrently and folds
// the results, in configuration order, into one annotation.
//
// Sources marked "source" are appended to the accumulated set; all others
// are merged into it. Cytoband reference tables are loaded once per path and
// shared between sources.
package pipeline
