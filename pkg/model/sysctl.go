package model

// SysctlParam is one kernel parameter and its desired value. Critical
// parameters are read back from the live kernel after application.
type SysctlParam struct {
	Name     string
	Value    string
	Critical bool
}

// SysctlParameterSet keeps parameters in the order they are written.
type SysctlParameterSet []SysctlParam

func (s SysctlParameterSet) Critical() SysctlParameterSet {
	var out SysctlParameterSet
	for _, p := range s {
		if p.Critical {
			out = append(out, p)
		}
	}
	return out
}

func (s SysctlParameterSet) Advisory() SysctlParameterSet {
	var out SysctlParameterSet
	for _, p := range s {
		if !p.Critical {
			out = append(out, p)
		}
	}
	return out
}
