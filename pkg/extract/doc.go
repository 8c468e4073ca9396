// Package extract pulls image references out of a rendered page.
package extract
