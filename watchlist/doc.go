// Package watchlist stores the books each student wants to hear about and
// decorates them with live availability from the catalog.
package watchlist
