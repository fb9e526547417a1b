package profiler

// Section is a named group of report items.
type Section struct {
	Name  string
	Items []ReportItem
}

// Report is the ordered list of sections of a full profiling run. Sections
// appear in the order their first item was produced.
type Report struct {
	Sections []Section
}

// Report runs every generator (basic, advanced, geographic, temporal) and
// groups their items by section.
func (p *Profiler) Report() *Report {
	items := p.Basic()
	items = append(items, p.Advanced()...)
	if geo := p.Geo(); geo != nil {
		items = append(items, *geo)
	}
	items = append(items, p.Temporal()...)
	return Group(items)
}

// Group folds items into sections, preserving first-appearance order of
// sections and the relative order of items within each.
func Group(items []ReportItem) *Report {
	r := &Report{}
	pos := make(map[string]int)
	for _, it := range items {
		i, ok := pos[it.Section]
		if !ok {
			i = len(r.Sections)
			pos[it.Section] = i
			r.Sections = append(r.Sections, Section{Name: it.Section})
		}
		r.Sections[i].Items = append(r.Sections[i].Items, it)
	}
	return r
}

// Section returns the named section, or nil.
func (r *Report) Section(name string) *Section {
	for i := range r.Sections {
		if r.Sections[i].Name == name {
			return &r.Sections[i]
		}
	}
	return nil
}

// Len returns the total number of items.
func (r *Report) Len() int {
	n := 0
	for _, s := range r.Sections {
		n += len(s.Items)
	}
	return n
}
