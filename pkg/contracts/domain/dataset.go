package domain

import (
	"encoding/json"
	"fmt"
)

// DataKey holds the yearly observations inside a CountrySeries
const DataKey = "data"

// CountrySeries is one country's entry in the JSON export: columns that do
// not vary over time sit at the top level, yearly records under "data".
type CountrySeries struct {
	Static map[string]interface{}
	Data   []map[string]interface{}
}

// MarshalJSON flattens Static next to the data list
func (c CountrySeries) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(c.Static)+1)
	for k, v := range c.Static {
		out[k] = v
	}
	data := c.Data
	if data == nil {
		data = []map[string]interface{}{}
	}
	out[DataKey] = data
	return json.Marshal(out)
}

// UnmarshalJSON splits the data list from the static fields
func (c *CountrySeries) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	c.Static = make(map[string]interface{}, len(raw))
	c.Data = nil
	for k, v := range raw {
		if k == DataKey {
			if err := json.Unmarshal(v, &c.Data); err != nil {
				return fmt.Errorf("decode %s: %w", DataKey, err)
			}
			continue
		}
		var val interface{}
		if err := json.Unmarshal(v, &val); err != nil {
			return fmt.Errorf("decode %s: %w", k, err)
		}
		c.Static[k] = val
	}
	return nil
}

// Dataset is the per-country JSON export keyed by canonical country name
type Dataset map[string]CountrySeries
