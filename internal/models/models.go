package models

// All lists every persisted model in dependency order for migrations.
func All() []interface{} {
	return []interface{}{
		&Teacher{},
		&Exam{},
		&Question{},
		&Student{},
		&Submission{},
		&Response{},
		&ActivityLog{},
	}
}
