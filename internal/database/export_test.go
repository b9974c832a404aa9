package database

import "time"

func (r *Repository) SetClock(now func() time.Time) { r.now = now }
