package domain

// Snapshot es la proyección persistida del registry.
type Snapshot struct {
	Teams      map[int]Team
	CategoryID string
}

func (s Snapshot) Empty() bool {
	return len(s.Teams) == 0 && s.CategoryID == ""
}
