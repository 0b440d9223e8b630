// Package types defines the configuration, run report, and error types shared
// by the folio reconciliation pipeline, its run journal, and the CLI.
package types
