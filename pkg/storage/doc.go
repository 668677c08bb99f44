// Package storage defines the translation history contract and the types
// shared across its adapters (memory, sqlite, postgres): the Record model,
// list options, sentinel errors, and a metrics decorator.
package storage
