package repository

// Entities lists every relational table for AutoMigrate in tests and local
// tooling. Production schemas come from the goose migrations.
func Entities() []any {
	return []any{
		&UserEntity{},
		&PropertyEntity{},
		&LeadEntity{},
		&ConnectionEntity{},
		&TransactionEntity{},
		&TransactionProgressEntity{},
		&NotificationEntity{},
	}
}
