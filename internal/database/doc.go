// Package database opens the sqlite store and runs migrations. Entity
// repositories live in subpackages (books, settings) and receive the shared
// *gorm.DB.
package database
