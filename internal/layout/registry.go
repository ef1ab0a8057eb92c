package layout

var registry = map[Template]Walker{}

// Register is called from the init of each template package.
func Register(w Walker) {
	registry[w.Template()] = w
}

func Get(t Template) (Walker, bool) {
	w, ok := registry[t]
	return w, ok
}
