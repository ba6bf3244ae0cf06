package permissions

import "strings"

// Component is a flattened "package/class" component name as stored in
// secure settings.
type Component struct {
	Package string
	Class   string
}

// ParseComponent reverses flattening. A class starting with "." is relative
// to the package. Returns false when there is no separator.
func ParseComponent(flat string) (Component, bool) {
	sep := strings.IndexByte(flat, '/')
	if sep < 0 {
		return Component{}, false
	}
	pkg := flat[:sep]
	cls := flat[sep+1:]
	if strings.HasPrefix(cls, ".") {
		cls = pkg + cls
	}
	return Component{Package: pkg, Class: cls}, true
}

// ParseComponentList splits a colon separated setting value, skipping
// entries that do not parse.
func ParseComponentList(value string) []Component {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ":")
	out := make([]Component, 0, len(parts))
	for _, p := range parts {
		if c, ok := ParseComponent(p); ok {
			out = append(out, c)
		}
	}
	return out
}
