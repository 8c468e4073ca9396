// Package storage owns the on-disk layout of a crawl.
//
// A Provisioner turns a page identity into a folder under the output root
// and creates it on demand. Two naming schemes are supported:
//   - url: the last path segment of the page URL with any extension removed;
//     the site root maps to the configured default label (page-1)
//   - sequence: the configured prefix followed by the 1-based visit index
//     (chapter-1, chapter-2, ...)
//
// Provisioning is idempotent. Calling Provision twice for the same page
// returns the same path and no error.
//
// WriteFile is the atomic file sink used by the downloader. It streams into a
// temporary file in the destination folder and renames it into place,
// overwriting any file of the same name.
//
// Usage:
//
//	p := storage.NewProvisioner("./data", config.FolderNamingURL, "page-1", "", log)
//	dir, err := p.Provision("http://books.toscrape.com/catalogue/page-2.html", 2)
//	if err != nil {
//	    return err // errors.KindIO, fatal for the crawl
//	}
//	n, err := storage.WriteFile(filepath.Join(dir, "cover.jpg"), body)
package storage
