package model

// VersionCounter hands out snapshot version numbers. Bumped with a single
// UPDATE inside the save transaction so two concurrent saves can never
// compute the same next version
type VersionCounter struct {
	ProjectID   string `gorm:"primaryKey"`
	NextVersion int    `gorm:"not null"`
}
