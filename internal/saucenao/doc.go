// Package saucenao implements the reverse-image-search client. One
// multipart upload per file, a 20 second timeout, and client-side
// similarity filtering on top of the service's own minsim floor.
package saucenao
