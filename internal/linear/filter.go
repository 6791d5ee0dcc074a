package linear

// IssueQuery holds the paging and filter arguments for an issue listing.
type IssueQuery struct {
	First  int
	Filter IssueFilter
}

// StringComparator mirrors Linear's StringComparator input. Set fields are
// combined with AND by the API.
type StringComparator struct {
	Eq  string   `json:"eq,omitempty"`
	Nin []string `json:"nin,omitempty"`
}

// NullableNumberComparator mirrors Linear's NullableNumberComparator input.
type NullableNumberComparator struct {
	Lte *int `json:"lte,omitempty"`
}

// WorkflowStateFilter filters on the issue's workflow state.
type WorkflowStateFilter struct {
	Name *StringComparator `json:"name,omitempty"`
}

// IssueFilter is the subset of Linear's IssueFilter input used by this server.
type IssueFilter struct {
	State    *WorkflowStateFilter      `json:"state,omitempty"`
	Priority *NullableNumberComparator `json:"priority,omitempty"`
}

// Empty reports whether no filter condition is set.
func (f IssueFilter) Empty() bool {
	return f.State == nil && f.Priority == nil
}

// WithStateName restricts the filter to issues in the named workflow state.
func (f IssueFilter) WithStateName(name string) IssueFilter {
	f.State = f.stateName(func(c *StringComparator) { c.Eq = name })
	return f
}

// WithoutStateNames excludes issues whose workflow state name is in names.
// It composes with WithStateName instead of replacing it.
func (f IssueFilter) WithoutStateNames(names []string) IssueFilter {
	f.State = f.stateName(func(c *StringComparator) {
		c.Nin = append([]string(nil), names...)
	})
	return f
}

// WithMaxPriority keeps issues whose priority is at most p.
func (f IssueFilter) WithMaxPriority(p int) IssueFilter {
	f.Priority = &NullableNumberComparator{Lte: &p}
	return f
}

// stateName returns a copy of the state filter with the name comparator
// modified by set.
func (f IssueFilter) stateName(set func(*StringComparator)) *WorkflowStateFilter {
	cmp := &StringComparator{}
	if f.State != nil && f.State.Name != nil {
		*cmp = *f.State.Name
	}
	set(cmp)
	return &WorkflowStateFilter{Name: cmp}
}
