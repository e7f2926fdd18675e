// Package storage provides file-based persistence for crawled awards.
//
// Everything lives under one data directory (default
// ~/.local/share/pcjc-awards/):
//
//	html/<directory>/<file>.html   raw award pages
//	images/<directory>/<file>.jpg  award photos, re-encoded as JPEG
//	records/<id>.json              extracted records
//	manifest.json                  references handled by earlier crawls
package storage
