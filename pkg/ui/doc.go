// Package ui holds the terminal presentation of a crawl: colored status
// lines, the banner and a download progress bar per page.
package ui
