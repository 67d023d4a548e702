package model

import (
	"bytes"
	"encoding/json"
	"slices"
)

// AllowList restricts a field to a set of values. It has three states:
// unrestricted (the zero value), restricted to an empty set (matches nothing)
// and restricted to a list.
type AllowList struct {
	values     []string
	restricted bool
}

// Unrestricted returns an AllowList that matches every value.
func Unrestricted() AllowList {
	return AllowList{}
}

// Restrict returns an AllowList matching only the given values. Called with
// no values it matches nothing.
func Restrict(values ...string) AllowList {
	return AllowList{values: slices.Clone(values), restricted: true}
}

// Restricted reports whether the list imposes any restriction.
func (a AllowList) Restricted() bool {
	return a.restricted
}

// Values returns a copy of the allowed values.
func (a AllowList) Values() []string {
	return slices.Clone(a.values)
}

// Allows reports whether v passes the list.
func (a AllowList) Allows(v string) bool {
	if !a.restricted {
		return true
	}
	return slices.Contains(a.values, v)
}

// MarshalJSON encodes an unrestricted list as null.
func (a AllowList) MarshalJSON() ([]byte, error) {
	if !a.restricted {
		return []byte("null"), nil
	}
	if a.values == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a.values)
}

// UnmarshalJSON treats null and [] as unrestricted. Dashboards send empty
// arrays for untouched selectors, which must not exclude every record.
func (a *AllowList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = Unrestricted()
		return nil
	}
	var vs []string
	if err := json.Unmarshal(data, &vs); err != nil {
		return err
	}
	if len(vs) == 0 {
		*a = Unrestricted()
		return nil
	}
	*a = Restrict(vs...)
	return nil
}

// Filter narrows requisitions before analysis. Fields are ANDed together;
// each field is an OR over its allow-list.
type Filter struct {
	RecruiterIDs     AllowList `json:"recruiter_ids"`
	Functions        AllowList `json:"functions"`
	JobFamilies      AllowList `json:"job_families"`
	Levels           AllowList `json:"levels"`
	Regions          AllowList `json:"regions"`
	HiringManagerIDs AllowList `json:"hiring_manager_ids"`
}

// FromValues builds an AllowList from CLI-style input, where an empty slice
// means no restriction.
func FromValues(values []string) AllowList {
	if len(values) == 0 {
		return Unrestricted()
	}
	return Restrict(values...)
}
