package admission

// Decision is the outcome of evaluating one candidate against a slot.
type Decision struct {
	Admitted bool
	Limit    int
}

// Evaluate applies the rules of the standard configuration.  See
// Config.Evaluate.
func Evaluate(existing []Category, requested Category) Decision {
	return NewConfig().Evaluate(existing, requested)
}

// Evaluate decides whether a dog of the requested category may join a slot
// already holding the existing occupants, and what the slot capacity is.
//
// A non-empty slot is locked into one of three modes: HIGH_RISK only (at most
// two dogs), SMALL only, or STANDARD and ACTIVE mixed.  An empty slot accepts
// any category and the first occupant sets the mode.  Branches are checked in
// order and the first match wins.
func (c Config) Evaluate(existing []Category, requested Category) Decision {
	count := len(existing)
	var hasHigh, hasSmall, hasShared bool
	for _, cat := range existing {
		switch cat {
		case HighRisk:
			hasHigh = true
		case Small:
			hasSmall = true
		case Standard, Active:
			hasShared = true
		}
	}

	if requested == HighRisk {
		limit := c.highRiskLimit
		if count == 0 || (count == 1 && hasHigh) {
			return Decision{Admitted: true, Limit: limit}
		}
		return Decision{Admitted: false, Limit: limit}
	}

	if hasHigh {
		return Decision{Admitted: false, Limit: c.highRiskLimit}
	}

	if requested == Small {
		limit := c.sharedLimit
		if count == 0 || (hasSmall && !hasShared && count < limit) {
			return Decision{Admitted: true, Limit: limit}
		}
		return Decision{Admitted: false, Limit: limit}
	}

	if hasSmall {
		return Decision{Admitted: false, Limit: c.sharedLimit}
	}

	switch requested {
	case Standard, Active:
		limit := c.sharedLimit
		if count == 0 || hasShared {
			return Decision{Admitted: count < limit, Limit: limit}
		}
		return Decision{Admitted: false, Limit: limit}
	}

	return Decision{Admitted: false, Limit: c.sharedLimit}
}
