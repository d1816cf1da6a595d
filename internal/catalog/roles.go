package catalog

import "fmt"

// Role marks a category whose selections change resolver control flow
// instead of (or in addition to) contributing prompt text.
type Role int

const (
	RoleNone Role = iota
	RoleAspectRatio
	RoleNegative
	RoleSuppressedWhenNoPerson
	RolePersonPresence
)

func (r Role) String() string {
	switch r {
	case RoleAspectRatio:
		return "aspect-ratio"
	case RoleNegative:
		return "negative"
	case RoleSuppressedWhenNoPerson:
		return "suppressed-when-no-person"
	case RolePersonPresence:
		return "person-presence"
	default:
		return "none"
	}
}

type RoleSpec struct {
	AspectRatio            string   `yaml:"aspect_ratio"`
	Negative               []string `yaml:"negative"`
	PersonPresence         string   `yaml:"person_presence"`
	NoPersonOption         string   `yaml:"no_person_option"`
	SuppressedWhenNoPerson []string `yaml:"suppressed_when_no_person"`
}

// Roles is the closed table of special-cased category ids.
type Roles struct {
	table          map[string]Role
	aspectRatio    string
	personPresence string
	noPerson       string
}

func newRoles(rs RoleSpec) (Roles, error) {
	r := Roles{
		table:          make(map[string]Role),
		aspectRatio:    rs.AspectRatio,
		personPresence: rs.PersonPresence,
		noPerson:       rs.NoPersonOption,
	}

	assign := func(id string, role Role) error {
		if id == "" {
			return nil
		}
		if prev, ok := r.table[id]; ok && prev != role {
			return fmt.Errorf("%w: category %q has roles %s and %s", ErrInvalid, id, prev, role)
		}
		r.table[id] = role
		return nil
	}

	if err := assign(rs.AspectRatio, RoleAspectRatio); err != nil {
		return Roles{}, err
	}
	for _, id := range rs.Negative {
		if err := assign(id, RoleNegative); err != nil {
			return Roles{}, err
		}
	}
	if err := assign(rs.PersonPresence, RolePersonPresence); err != nil {
		return Roles{}, err
	}
	for _, id := range rs.SuppressedWhenNoPerson {
		if err := assign(id, RoleSuppressedWhenNoPerson); err != nil {
			return Roles{}, err
		}
	}
	if (rs.PersonPresence == "") != (rs.NoPersonOption == "") {
		return Roles{}, fmt.Errorf("%w: person_presence and no_person_option must be set together", ErrInvalid)
	}

	return r, nil
}

func (r Roles) Of(categoryID string) Role {
	return r.table[categoryID]
}

func (r Roles) AspectRatioCategory() string    { return r.aspectRatio }
func (r Roles) PersonPresenceCategory() string { return r.personPresence }
func (r Roles) NoPersonOption() string         { return r.noPerson }

func (r Roles) categoryIDs() []string {
	out := make([]string, 0, len(r.table))
	for id := range r.table {
		out = append(out, id)
	}
	return out
}
