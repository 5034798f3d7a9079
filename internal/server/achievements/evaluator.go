package achievements

// Definition is an achievement with its trigger already parsed.
// A definition whose stored trigger failed to parse carries the zero
// Trigger and therefore never unlocks.
type Definition struct {
	ID          int64
	Name        string
	Description string
	Icon        string
	Trigger     Trigger
}

// NewDefinition parses rawTrigger and returns the definition together with
// the parse error, if any. The definition is usable either way.
func NewDefinition(id int64, name, description, icon, rawTrigger string) (Definition, error) {
	d := Definition{ID: id, Name: name, Description: description, Icon: icon}
	t, err := ParseTrigger(rawTrigger)
	if err != nil {
		return d, err
	}
	d.Trigger = t
	return d, nil
}

// Unlock is a newly earned achievement that still has to be recorded.
type Unlock struct {
	UserID     int64
	Definition Definition
}

// UnlockNew returns, in definition order, every definition that is not in
// unlocked and whose trigger stats now satisfy. Running it again with the
// returned ids added to unlocked yields nothing.
func UnlockNew(userID int64, stats Stats, defs []Definition, unlocked map[int64]struct{}) []Unlock {
	var out []Unlock
	for _, d := range defs {
		if _, ok := unlocked[d.ID]; ok {
			continue
		}
		if d.Trigger.Matches(stats) {
			out = append(out, Unlock{UserID: userID, Definition: d})
		}
	}
	return out
}
