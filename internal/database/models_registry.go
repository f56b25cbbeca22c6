package database

import "codefolio/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Reply{},
		&models.Vote{},
		&models.Follow{},
		&models.Notification{},
	}
}
