// Package models holds the GORM row types of the CRM schema. Each model
// converts to and from its domain aggregate (XModelFromDomain / ToDomain) so
// the domain packages carry no ORM tags. Table layouts must match the SQL
// files under migrations/; sqlite builds its schema from these types instead.
package models
