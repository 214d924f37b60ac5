// Package models contains the GORM persistence models of the connector.
// The models are kept apart from the domain types so the domain layer stays
// free of ORM tags; each model converts to and from its domain type.
package models
