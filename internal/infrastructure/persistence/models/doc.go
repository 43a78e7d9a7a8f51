// Package models contains the GORM persistence models. Each model maps to
// exactly one domain type via ToDomain/FromDomain; domain types never carry
// gorm tags.
package models
