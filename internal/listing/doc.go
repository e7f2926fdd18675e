// Package listing turns the site's plain-text directory dump into award
// references.
//
// The dump has no indentation. A line such as "./20170801/20170619:" opens a
// directory, the numeric "*.html" and "*.jpg" lines that follow belong to it, and
// a blank line closes it. Files seen while no directory is open are dropped: the
// dump interleaves files that belong to no award directory.
//
// The package also reads the per-year index pages, which link award pages
// directly as "YYYYMMDD/NNNN.html".
package listing
