package entity

import "time"

// defaultRuntimeMinutes is used when a film carries no runtime at all.
const defaultRuntimeMinutes = 120

type Film struct {
	Base
	Title       string     `db:"title"`
	Description *string    `db:"description"`
	Runtime     int        `db:"runtime"` // raw value from the catalog, unit is ambiguous
	ReleaseDate *time.Time `db:"release_date"`
}

// NormalizeRuntime converts the raw catalog runtime into minutes. Catalog
// sources disagree on the unit: anything above 300 is taken as seconds,
// otherwise minutes. Zero or negative means unknown and falls back to the
// default. Keep this heuristic in one place until the catalog schema
// carries an explicit unit.
func NormalizeRuntime(raw int) int {
	if raw <= 0 {
		return defaultRuntimeMinutes
	}
	if raw > 300 {
		return raw / 60
	}
	return raw
}

// Duration returns the film length used for scheduling.
func (f *Film) Duration() time.Duration {
	return time.Duration(NormalizeRuntime(f.Runtime)) * time.Minute
}
