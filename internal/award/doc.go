// Package award provides the value types shared by the listing walker, the page
// extractor and the crawl collaborators.
//
// A Reference names one resource found in the site listing (an award page or its
// image). A Record holds the fields recovered from one award page; every field is
// a tagged Field so that "anchor never found" and "anchor found but value
// unreadable" stay distinguishable all the way to the stored JSON. A Manifest
// tracks which references earlier crawls already processed.
package award
