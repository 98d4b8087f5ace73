// Package repository composes filtered, sorted and paged queries over Bun
// tables or in-memory slices and runs them as a count plus a page fetch.
package repository
