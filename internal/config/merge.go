package config

// NewModel returns an empty model with its maps allocated.
func NewModel() *Model {
	return &Model{Definitions: make(map[string]*DefinitionManifest)}
}

// Merge copies the settings of o over m. Scalars override when set, blocks
// override when present, manifests override per definition and default
// effects override per name while keeping first-seen order.
func (m *Model) Merge(o *Model) {
	if o == nil {
		return
	}
	if o.EffectsFile != "" {
		m.EffectsFile = o.EffectsFile
	}
	if o.LogLevel != "" {
		m.LogLevel = o.LogLevel
	}
	if o.LogFormat != "" {
		m.LogFormat = o.LogFormat
	}
	if o.Rune != nil {
		m.Rune = o.Rune
	}
	if o.Sync != nil {
		m.Sync = o.Sync
	}
	if o.Admin != nil {
		m.Admin = o.Admin
	}

	if m.Definitions == nil {
		m.Definitions = make(map[string]*DefinitionManifest, len(o.Definitions))
	}
	for name, d := range o.Definitions {
		m.Definitions[name] = d
	}

	index := make(map[string]int, len(m.Effects))
	for i, e := range m.Effects {
		index[e.Name] = i
	}
	for _, e := range o.Effects {
		if i, ok := index[e.Name]; ok {
			m.Effects[i] = e
			continue
		}
		index[e.Name] = len(m.Effects)
		m.Effects = append(m.Effects, e)
	}
}
