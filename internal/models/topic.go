package models

// TopicSide is one stance of a battle topic. Difficulty rates how hard the
// stance is to defend (1-10) and feeds the post-judgment fairness bonus.
type TopicSide struct {
	Text       string `json:"text"`
	Difficulty int    `json:"difficulty"`
}

// Topic is a generated matchup: a label plus two opposing stances.
type Topic struct {
	Label string    `json:"label"`
	SideA TopicSide `json:"sideA"`
	SideB TopicSide `json:"sideB"`
}

// SideFor returns the stance assigned to a side.
func (t *Topic) SideFor(side Side) TopicSide {
	if side == SideB {
		return t.SideB
	}
	return t.SideA
}
