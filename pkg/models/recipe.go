package models

// Recipe is a named snapshot of one tool's persisted option state.
type Recipe struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	ToolID  string         `json:"toolId"`
	SavedAt int64          `json:"savedAt"`
	State   map[string]any `json:"state"`
}

// Clone returns a copy of the recipe whose state shares nothing with r.
func (r Recipe) Clone() Recipe {
	r.State = CloneState(r.State)
	return r
}

// CloneState deep-copies a JSON-shaped option object.
func CloneState(state map[string]any) map[string]any {
	if state == nil {
		return nil
	}
	out := make(map[string]any, len(state))
	for k, v := range state {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneState(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
