// Package crawl drives award references through fetch, storage and extraction.
//
// A Pipeline consumes a lazy sequence of references (from a directory listing
// or a year index page) with a bounded number of workers. Fetch failures and
// pages that deviate from the award template are reported in the Summary and
// never abort the run; only context cancellation stops it early.
package crawl
