package hero

// Comparison holds a's stats minus b's. A positive diff means the first hero leads.
type Comparison struct {
	ID1              string `json:"id1"`
	ID2              string `json:"id2"`
	StrengthDiff     int    `json:"strengthDiff"`
	AgilityDiff      int    `json:"agilityDiff"`
	DexterityDiff    int    `json:"dexterityDiff"`
	IntelligenceDiff int    `json:"intelligenceDiff"`
}

func Compare(a, b Hero) Comparison {
	return Comparison{
		ID1:              a.ID,
		ID2:              b.ID,
		StrengthDiff:     a.PowerStats.Strength - b.PowerStats.Strength,
		AgilityDiff:      a.PowerStats.Agility - b.PowerStats.Agility,
		DexterityDiff:    a.PowerStats.Dexterity - b.PowerStats.Dexterity,
		IntelligenceDiff: a.PowerStats.Intelligence - b.PowerStats.Intelligence,
	}
}
