// Package expand merges the layers of configuration that shape a package:
// spec defaults, environment overrides, per-package overrides, and rendered
// template values. All merges are shallow and pure; precedence is
// package override > environment > spec default.
package expand

// Lookup resolves an override value for a default key. os.LookupEnv
// satisfies this signature directly.
type Lookup func(key string) (string, bool)

// Chain tries each lookup in order and returns the first hit.
func Chain(lookups ...Lookup) Lookup {
	return func(key string) (string, bool) {
		for _, l := range lookups {
			if v, ok := l(key); ok {
				return v, true
			}
		}
		return "", false
	}
}

// ResolveDefaults applies overrides from lookup to the spec defaults. The
// result has exactly the same key set as defaults; keys absent from the
// lookup fall back to their spec value.
func ResolveDefaults(defaults map[string]string, lookup Lookup) map[string]string {
	effective := make(map[string]string, len(defaults))
	for key, value := range defaults {
		if v, ok := lookup(key); ok {
			value = v
		}
		effective[key] = value
	}
	return effective
}

// PackageContext merges the effective defaults with one package's override
// map, override winning key-for-key. index is 1-based; it is the package's
// identity for the whole run.
func PackageContext(effective map[string]string, packages []map[string]string, index int) (map[string]string, error) {
	if index < 1 || index > len(packages) {
		return nil, &MissingPackageError{Index: index, Count: len(packages)}
	}

	override := packages[index-1]
	ctx := make(map[string]string, len(effective)+len(override))
	for k, v := range effective {
		ctx[k] = v
	}
	for k, v := range override {
		ctx[k] = v
	}
	return ctx, nil
}

// Assemble extends a package context with rendered template values, each
// added under its template name. A template name that collides with an
// existing key is an error, not a merge.
func Assemble(ctx map[string]string, rendered map[string]string) (map[string]string, error) {
	record := make(map[string]string, len(ctx)+len(rendered))
	for k, v := range ctx {
		record[k] = v
	}
	for name, value := range rendered {
		if _, exists := record[name]; exists {
			return nil, &FieldCollisionError{Field: name}
		}
		record[name] = value
	}
	return record, nil
}
