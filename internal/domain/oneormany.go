package domain

import "encoding/json"

// OneOrMany is an ordered collection that marshals as a bare string when it
// holds exactly one element and as an array otherwise. The upstream result
// format collapses singleton caption and enhanced-prompt lists this way.
type OneOrMany []string

// MarshalJSON implements the collapsing rule.
func (o OneOrMany) MarshalJSON() ([]byte, error) {
	if len(o) == 1 {
		return json.Marshal(o[0])
	}
	return json.Marshal([]string(o))
}

// UnmarshalJSON accepts either form.
func (o *OneOrMany) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*o = OneOrMany{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*o = OneOrMany(many)
	return nil
}
