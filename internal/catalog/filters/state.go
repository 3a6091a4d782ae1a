// internal/catalog/filters/state.go
package filters

// Selection is what the user picked for one filter. Raw Min/Max come from
// slider controls; Ranges holds labels of predefined intervals.
type Selection struct {
	Values []string `json:"values,omitempty"`
	Ranges []string `json:"ranges,omitempty"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
}

// IsEmpty treats blank values and labels as absent.
func (s Selection) IsEmpty() bool {
	if s.Min != nil || s.Max != nil {
		return false
	}
	for _, v := range s.Values {
		if v != "" {
			return false
		}
	}
	for _, r := range s.Ranges {
		if r != "" {
			return false
		}
	}
	return true
}

func (s Selection) HasBounds() bool {
	return s.Min != nil || s.Max != nil
}

// State maps filter id to selection. A missing entry means no constraint.
type State map[string]Selection

func (s State) IsEmpty() bool {
	for _, sel := range s {
		if !sel.IsEmpty() {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so callers can keep mutating their own state.
func (s State) Clone() State {
	out := make(State, len(s))
	for id, sel := range s {
		c := Selection{
			Values: append([]string(nil), sel.Values...),
			Ranges: append([]string(nil), sel.Ranges...),
		}
		if sel.Min != nil {
			c.Min = Float(*sel.Min)
		}
		if sel.Max != nil {
			c.Max = Float(*sel.Max)
		}
		out[id] = c
	}
	return out
}
