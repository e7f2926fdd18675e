// Package cli implements the command-line interface for pcjc-awards.
//
// The cli package provides the Cobra-based CLI: listing walks (list), local page
// extraction (extract), site crawls (crawl) and stored record reports (records).
// Output is text or JSON. It wires config, fetcher, storage, extract and crawl
// together.
package cli
